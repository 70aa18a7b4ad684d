package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInterestExpressed  EventType = "interest.expressed"
	EventInterestCancelled  EventType = "interest.cancelled"
	EventInterestRestored   EventType = "interest.restored"
	EventInterestRetracted  EventType = "interest.retracted"
	EventLeadUpdated        EventType = "lead.updated"
	EventStageAdvanced      EventType = "transaction.stage_advanced"
	EventAppointmentCreated EventType = "appointment.created"
	EventAppointmentUpdated EventType = "appointment.updated"
)

// TransactionEvent is emitted after a committed mutation. Recipients lists
// every user whose live stream should receive it.
type TransactionEvent struct {
	ID            uuid.UUID      `json:"id"`
	Type          EventType      `json:"type"`
	TransactionID *uuid.UUID     `json:"transactionId,omitempty"`
	LeadID        *uuid.UUID     `json:"leadId,omitempty"`
	PropertyID    uuid.UUID      `json:"propertyId"`
	Stage         Stage          `json:"stage,omitempty"`
	Recipients    []uuid.UUID    `json:"recipients"`
	Payload       map[string]any `json:"payload,omitempty"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

func NewTransactionEvent(t EventType, propertyID uuid.UUID, recipients ...uuid.UUID) *TransactionEvent {
	return &TransactionEvent{
		ID:         uuid.New(),
		Type:       t,
		PropertyID: propertyID,
		Recipients: dedupeIDs(recipients),
		OccurredAt: time.Now().UTC(),
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
