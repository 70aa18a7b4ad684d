package model

import (
	"time"

	"github.com/google/uuid"
)

// PropertyLead records a buyer's interest in a property. Cancelling flips
// InterestCancelled instead of deleting the row.
type PropertyLead struct {
	ID                uuid.UUID  `json:"id"`
	PropertyID        uuid.UUID  `json:"propertyId"`
	BuyerID           uuid.UUID  `json:"buyerId"`
	AgentID           *uuid.UUID `json:"agentId,omitempty"`
	Status            LeadStatus `json:"status"`
	InterestCancelled bool       `json:"interestCancelled"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// LeadView is a lead joined with what the dashboards display next to it.
type LeadView struct {
	Lead           *PropertyLead `json:"lead"`
	Property       *Property     `json:"property,omitempty"`
	Buyer          *User         `json:"buyer,omitempty"`
	Transaction    *Transaction  `json:"transaction,omitempty"`
	EffectiveStage Stage         `json:"effectiveStage"`
}

type LeadFilter struct {
	PropertyIDs      []uuid.UUID
	BuyerID          *uuid.UUID
	IncludeCancelled bool
	Limit            int
	Offset           int
}

type ConnectionStatus string

const (
	ConnectionStatusActive    ConnectionStatus = "active"
	ConnectionStatusCancelled ConnectionStatus = "cancelled"
)

// BuyerAgentConnection pairs a buyer with an agent for one property. It is a
// second way a transaction can originate besides a lead.
type BuyerAgentConnection struct {
	ID         uuid.UUID        `json:"id"`
	BuyerID    uuid.UUID        `json:"buyerId"`
	AgentID    uuid.UUID        `json:"agentId"`
	PropertyID uuid.UUID        `json:"propertyId"`
	Status     ConnectionStatus `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}
