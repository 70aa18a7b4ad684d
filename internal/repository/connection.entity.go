package repository

import (
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
)

type ConnectionEntity struct {
	pg.Model
	BuyerID    uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index:idx_connections_pair"`
	AgentID    uuid.UUID `gorm:"column:agent_id;type:uuid;not null;index"`
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;not null;index:idx_connections_pair"`
	Status     string    `gorm:"column:status;not null;default:active"`
}

func (ConnectionEntity) TableName() string {
	return "buyer_agent_connections"
}

func toConnectionEntity(m *model.BuyerAgentConnection) *ConnectionEntity {
	if m == nil {
		return nil
	}
	return &ConnectionEntity{
		Model:      pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		BuyerID:    m.BuyerID,
		AgentID:    m.AgentID,
		PropertyID: m.PropertyID,
		Status:     string(m.Status),
	}
}

func toConnectionModel(e *ConnectionEntity) *model.BuyerAgentConnection {
	if e == nil {
		return nil
	}
	return &model.BuyerAgentConnection{
		ID:         e.ID,
		BuyerID:    e.BuyerID,
		AgentID:    e.AgentID,
		PropertyID: e.PropertyID,
		Status:     model.ConnectionStatus(e.Status),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
