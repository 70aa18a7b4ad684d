package docstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type appointmentDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	PropertyID       string             `bson:"propertyId"`
	BuyerID          string             `bson:"buyerId"`
	Date             string             `bson:"date"`
	Time             string             `bson:"time"`
	Status           string             `bson:"status"`
	SubmittedByBuyer bool               `bson:"submittedByBuyer"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

func toAppointmentDoc(a *model.Appointment) *appointmentDoc {
	return &appointmentDoc{
		PropertyID:       a.PropertyID.String(),
		BuyerID:          a.BuyerID.String(),
		Date:             a.Date,
		Time:             a.Time,
		Status:           string(a.Status),
		SubmittedByBuyer: a.SubmittedByBuyer,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (d *appointmentDoc) toModel() (*model.Appointment, error) {
	propertyID, err := uuid.Parse(d.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: property id: %w", d.ID.Hex(), err)
	}
	buyerID, err := uuid.Parse(d.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: buyer id: %w", d.ID.Hex(), err)
	}
	return &model.Appointment{
		ID:               d.ID.Hex(),
		PropertyID:       propertyID,
		BuyerID:          buyerID,
		Date:             d.Date,
		Time:             d.Time,
		Status:           model.AppointmentStatus(d.Status),
		SubmittedByBuyer: d.SubmittedByBuyer,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

// visitSettingsDoc is keyed by the property id, one document per property.
type visitSettingsDoc struct {
	PropertyID     string                      `bson:"_id"`
	PresenceType   string                      `bson:"presenceType"`
	SchedulingType string                      `bson:"schedulingType"`
	Availability   map[string][]model.TimeSlot `bson:"availability,omitempty"`
	UpdatedAt      time.Time                   `bson:"updatedAt"`
}

func toVisitSettingsDoc(v *model.VisitSettings) *visitSettingsDoc {
	return &visitSettingsDoc{
		PropertyID:     v.PropertyID.String(),
		PresenceType:   string(v.PresenceType),
		SchedulingType: string(v.SchedulingType),
		Availability:   v.Availability,
		UpdatedAt:      v.UpdatedAt,
	}
}

func (d *visitSettingsDoc) toModel() (*model.VisitSettings, error) {
	propertyID, err := uuid.Parse(d.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("visit settings: property id: %w", err)
	}
	return &model.VisitSettings{
		PropertyID:     propertyID,
		PresenceType:   model.PresenceType(d.PresenceType),
		SchedulingType: model.SchedulingType(d.SchedulingType),
		Availability:   d.Availability,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}
