package repository

import (
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
)

// LeadEntity carries the partial unique index that keeps at most one active
// lead per (property, buyer).
type LeadEntity struct {
	pg.Model
	PropertyID        uuid.UUID  `gorm:"column:property_id;type:uuid;not null;index;uniqueIndex:idx_property_leads_active_pair,where:interest_cancelled = false"`
	BuyerID           uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;index;uniqueIndex:idx_property_leads_active_pair,where:interest_cancelled = false"`
	AgentID           *uuid.UUID `gorm:"column:agent_id;type:uuid"`
	Status            string     `gorm:"column:status;not null;default:PENDING"`
	InterestCancelled bool       `gorm:"column:interest_cancelled;not null;default:false"`
	Notes             string     `gorm:"column:notes"`
}

func (LeadEntity) TableName() string {
	return "property_leads"
}

func toLeadEntity(m *model.PropertyLead) *LeadEntity {
	if m == nil {
		return nil
	}
	return &LeadEntity{
		Model:             pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		PropertyID:        m.PropertyID,
		BuyerID:           m.BuyerID,
		AgentID:           m.AgentID,
		Status:            string(m.Status),
		InterestCancelled: m.InterestCancelled,
		Notes:             m.Notes,
	}
}

func toLeadModel(e *LeadEntity) *model.PropertyLead {
	if e == nil {
		return nil
	}
	return &model.PropertyLead{
		ID:                e.ID,
		PropertyID:        e.PropertyID,
		BuyerID:           e.BuyerID,
		AgentID:           e.AgentID,
		Status:            model.LeadStatus(e.Status),
		InterestCancelled: e.InterestCancelled,
		Notes:             e.Notes,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toLeadModels(entities []*LeadEntity) []*model.PropertyLead {
	out := make([]*model.PropertyLead, 0, len(entities))
	for _, e := range entities {
		out = append(out, toLeadModel(e))
	}
	return out
}
