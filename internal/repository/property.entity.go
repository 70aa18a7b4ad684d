package repository

import (
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
)

type PropertyEntity struct {
	pg.Model
	UserID   uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	AgentID  *uuid.UUID             `gorm:"column:agent_id;type:uuid;index"`
	Title    string                 `gorm:"column:title;not null"`
	Price    float64                `gorm:"column:price;not null;default:0"`
	Location string                 `gorm:"column:location"`
	Status   string                 `gorm:"column:status;not null;default:pending;index"`
	Features model.PropertyFeatures `gorm:"column:features;type:jsonb;serializer:json"`
}

func (PropertyEntity) TableName() string {
	return "properties"
}

func toPropertyEntity(m *model.Property) *PropertyEntity {
	if m == nil {
		return nil
	}
	return &PropertyEntity{
		Model:    pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		UserID:   m.UserID,
		AgentID:  m.AgentID,
		Title:    m.Title,
		Price:    m.Price,
		Location: m.Location,
		Status:   string(m.Status),
		Features: m.Features,
	}
}

func toPropertyModel(e *PropertyEntity) *model.Property {
	if e == nil {
		return nil
	}
	return &model.Property{
		ID:        e.ID,
		UserID:    e.UserID,
		AgentID:   e.AgentID,
		Title:     e.Title,
		Price:     e.Price,
		Location:  e.Location,
		Status:    model.PropertyStatus(e.Status),
		Features:  e.Features,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
