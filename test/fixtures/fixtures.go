package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
)

const (
	BuyerName  = "Μαρία Παπαδοπούλου"
	SellerName = "Γιώργος Νικολάου"
	AgentName  = "Ελένη Γεωργίου"
	AdminName  = "Διαχειριστής"

	PropertyTitle = "Μεζονέτα στη Γλυφάδα"
)

var PropertyFeatures = model.PropertyFeatures{
	Bedrooms:  3,
	Bathrooms: 2,
	Area:      142.5,
	Floor:     2,
	Parking:   true,
}

func NewTestProperty(seller uuid.UUID, agent *uuid.UUID) *model.Property {
	return &model.Property{
		UserID:   seller,
		AgentID:  agent,
		Title:    PropertyTitle,
		Price:    420000,
		Location: "Γλυφάδα",
		Status:   model.PropertyStatusApproved,
		Features: PropertyFeatures,
	}
}

func NewTestLead(propertyID, buyerID uuid.UUID) *model.PropertyLead {
	return &model.PropertyLead{
		PropertyID: propertyID,
		BuyerID:    buyerID,
		Status:     model.StagePending,
	}
}

func NewTestVisitSettings(propertyID uuid.UUID) model.VisitSettings {
	return model.VisitSettings{
		PropertyID:     propertyID,
		PresenceType:   model.PresenceSellerAndPlatform,
		SchedulingType: model.SchedulingSellerAvailability,
		Availability: map[string][]model.TimeSlot{
			"monday":   {{Start: "10:00", End: "13:00"}},
			"thursday": {{Start: "17:00", End: "20:00"}},
		},
	}
}

// NextWeekday returns the date of the next given weekday in the layout the
// appointment endpoints accept.
func NextWeekday(from time.Time, day time.Weekday) string {
	d := from.AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}
