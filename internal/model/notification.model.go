package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInterested              NotificationType = "INTERESTED"
	NotificationCancelled               NotificationType = "CANCELLED"
	NotificationStageUpdate             NotificationType = "STAGE_UPDATE"
	NotificationAgentStageUpdate        NotificationType = "AGENT_STAGE_UPDATE"
	NotificationAppointmentRequest      NotificationType = "APPOINTMENT_REQUEST"
	NotificationAppointmentStatusChange NotificationType = "APPOINTMENT_STATUS_CHANGE"
)

type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipientId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"isRead"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	PropertyID  *uuid.UUID       `json:"propertyId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type NotificationFilter struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Limit       int
	Offset      int
}
