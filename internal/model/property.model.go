package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PropertyStatus string

const (
	PropertyStatusApproved    PropertyStatus = "approved"
	PropertyStatusPending     PropertyStatus = "pending"
	PropertyStatusRejected    PropertyStatus = "rejected"
	PropertyStatusUnavailable PropertyStatus = "unavailable"
)

func ParsePropertyStatus(s string) (PropertyStatus, bool) {
	st := PropertyStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case PropertyStatusApproved, PropertyStatusPending, PropertyStatusRejected, PropertyStatusUnavailable:
		return st, true
	}
	return "", false
}

type PropertyFeatures struct {
	Bedrooms  int      `json:"bedrooms,omitempty"`
	Bathrooms int      `json:"bathrooms,omitempty"`
	Area      float64  `json:"area,omitempty"`
	Floor     int      `json:"floor,omitempty"`
	Parking   bool     `json:"parking,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// Property is a listing owned by a seller (UserID). AgentID is set when an
// agent handles the listing on the seller's behalf.
type Property struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	AgentID   *uuid.UUID       `json:"agentId,omitempty"`
	Title     string           `json:"title"`
	Price     float64          `json:"price"`
	Location  string           `json:"location"`
	Status    PropertyStatus   `json:"status"`
	Features  PropertyFeatures `json:"features"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Contact returns whoever should hear about activity on the listing.
func (p *Property) Contact() uuid.UUID {
	if p.AgentID != nil {
		return *p.AgentID
	}
	return p.UserID
}

type PropertyFilter struct {
	UserID *uuid.UUID
	Status PropertyStatus
	Limit  int
	Offset int
}
