package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentPending  AppointmentStatus = "pending"
	AppointmentAccepted AppointmentStatus = "accepted"
	AppointmentRejected AppointmentStatus = "rejected"
)

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case AppointmentPending, AppointmentAccepted, AppointmentRejected:
		return st, true
	}
	return "", false
}

// Appointment is a proposed property visit. IDs are document-store hex ids.
type Appointment struct {
	ID               string            `json:"id"`
	PropertyID       uuid.UUID         `json:"propertyId"`
	BuyerID          uuid.UUID         `json:"buyerId"`
	Date             string            `json:"date"`
	Time             string            `json:"time"`
	Status           AppointmentStatus `json:"status"`
	SubmittedByBuyer bool              `json:"submittedByBuyer"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type PresenceType string

const (
	PresencePlatformOnly      PresenceType = "platform_only"
	PresenceSellerAndPlatform PresenceType = "seller_and_platform"
)

type SchedulingType string

const (
	SchedulingSellerAvailability SchedulingType = "seller_availability"
	SchedulingBuyerProposal      SchedulingType = "buyer_proposal"
)

type TimeSlot struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// VisitSettings controls how visits to a property are booked. Availability is
// only meaningful for SchedulingSellerAvailability and is dropped otherwise.
type VisitSettings struct {
	PropertyID     uuid.UUID             `json:"propertyId"`
	PresenceType   PresenceType          `json:"presenceType"`
	SchedulingType SchedulingType        `json:"schedulingType"`
	Availability   map[string][]TimeSlot `json:"availability,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// Normalize lower-cases the enums and reports whether both are known.
func (v *VisitSettings) Normalize() bool {
	v.PresenceType = PresenceType(strings.ToLower(strings.TrimSpace(string(v.PresenceType))))
	v.SchedulingType = SchedulingType(strings.ToLower(strings.TrimSpace(string(v.SchedulingType))))
	switch v.PresenceType {
	case PresencePlatformOnly, PresenceSellerAndPlatform:
	default:
		return false
	}
	switch v.SchedulingType {
	case SchedulingSellerAvailability:
	case SchedulingBuyerProposal:
		v.Availability = nil
	default:
		return false
	}
	return true
}

type AppointmentFilter struct {
	PropertyIDs []uuid.UUID
	BuyerID     *uuid.UUID
	Status      AppointmentStatus
	Limit       int64
}
