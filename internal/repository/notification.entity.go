package repository

import (
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
)

type NotificationEntity struct {
	pg.Model
	RecipientID uuid.UUID      `gorm:"column:recipient_id;type:uuid;not null;index:idx_notifications_recipient_read"`
	Type        string         `gorm:"column:type;not null"`
	Title       string         `gorm:"column:title;not null"`
	Message     string         `gorm:"column:message;not null"`
	IsRead      bool           `gorm:"column:is_read;not null;default:false;index:idx_notifications_recipient_read"`
	Metadata    map[string]any `gorm:"column:metadata;type:jsonb;serializer:json"`
	PropertyID  *uuid.UUID     `gorm:"column:property_id;type:uuid"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toNotificationEntity(m *model.Notification) *NotificationEntity {
	if m == nil {
		return nil
	}
	return &NotificationEntity{
		Model:       pg.Model{ID: m.ID, CreatedAt: m.CreatedAt},
		RecipientID: m.RecipientID,
		Type:        string(m.Type),
		Title:       m.Title,
		Message:     m.Message,
		IsRead:      m.IsRead,
		Metadata:    m.Metadata,
		PropertyID:  m.PropertyID,
	}
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:          e.ID,
		RecipientID: e.RecipientID,
		Type:        model.NotificationType(e.Type),
		Title:       e.Title,
		Message:     e.Message,
		IsRead:      e.IsRead,
		Metadata:    e.Metadata,
		PropertyID:  e.PropertyID,
		CreatedAt:   e.CreatedAt,
	}
}
