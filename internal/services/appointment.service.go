package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/docstore"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/logger"
)

const (
	appointmentDateLayout = "2006-01-02"
	appointmentTimeLayout = "15:04"
)

var (
	ErrNoVisitSettings        = apperr.NoVisitSettings("visit settings are not configured for this property")
	ErrVisitSettingsNotFound  = apperr.NotFound("visit settings not found")
	ErrAppointmentNotFound    = apperr.NotFound("appointment not found")
	ErrInvalidVisitSettings   = apperr.Validation("unknown presence or scheduling type")
	ErrInvalidAppointmentDate = apperr.Validation("date must be YYYY-MM-DD and time HH:MM")
	ErrInvalidDecision        = apperr.Validation("status must be accepted or rejected")
)

// AppointmentStore is the document store holding visit settings and
// appointments.
type AppointmentStore interface {
	GetVisitSettings(ctx context.Context, propertyID uuid.UUID) (*model.VisitSettings, error)
	UpsertVisitSettings(ctx context.Context, v *model.VisitSettings) (*model.VisitSettings, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]*model.Appointment, error)
}

type AppointmentService struct {
	store      AppointmentStore
	properties PropertyRepository
	notifier   *NotificationService
	emitter    EventEmitter
}

func NewAppointmentService(store AppointmentStore, properties PropertyRepository, notifier *NotificationService, emitter EventEmitter) *AppointmentService {
	return &AppointmentService{
		store:      store,
		properties: properties,
		notifier:   notifier,
		emitter:    orNop(emitter),
	}
}

func (s *AppointmentService) GetVisitSettings(ctx context.Context, propertyID uuid.UUID) (*model.VisitSettings, error) {
	v, err := s.store.GetVisitSettings(ctx, propertyID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrVisitSettingsNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return v, nil
}

// SetVisitSettings stores the seller's visit rules for one property.
func (s *AppointmentService) SetVisitSettings(ctx context.Context, propertyID, sellerID uuid.UUID, v model.VisitSettings) (*model.VisitSettings, error) {
	property, err := s.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !isSellerSide(property, sellerID) {
		return nil, ErrNotPropertyOwner
	}
	if !v.Normalize() {
		return nil, ErrInvalidVisitSettings
	}
	v.PropertyID = propertyID
	saved, err := s.store.UpsertVisitSettings(ctx, &v)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return saved, nil
}

// ProposeAppointment books a visit. Platform-only visits are accepted at once;
// otherwise the seller is asked to decide.
func (s *AppointmentService) ProposeAppointment(ctx context.Context, propertyID, buyerID uuid.UUID, date, at string) (*model.Appointment, error) {
	date, at = strings.TrimSpace(date), strings.TrimSpace(at)
	if _, err := time.Parse(appointmentDateLayout, date); err != nil {
		return nil, ErrInvalidAppointmentDate
	}
	if _, err := time.Parse(appointmentTimeLayout, at); err != nil {
		return nil, ErrInvalidAppointmentDate
	}
	property, err := s.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.GetVisitSettings(ctx, propertyID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNoVisitSettings
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	status := model.AppointmentPending
	if settings.PresenceType == model.PresencePlatformOnly {
		status = model.AppointmentAccepted
	}
	appt, err := s.store.CreateAppointment(ctx, &model.Appointment{
		PropertyID:       propertyID,
		BuyerID:          buyerID,
		Date:             date,
		Time:             at,
		Status:           status,
		SubmittedByBuyer: true,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if status == model.AppointmentPending {
		// the appointment is already stored; a lost notification is logged only
		if _, err := s.notifier.NotifyAppointmentRequest(ctx, property, appt); err != nil {
			logger.Error("appointment request notification failed", "appointment_id", appt.ID, "err", err)
		}
	}
	emitAll(ctx, s.emitter, appointmentEvent(model.EventAppointmentCreated, property, appt))
	return appt, nil
}

// SetAppointmentStatus records the seller's decision and tells the buyer.
func (s *AppointmentService) SetAppointmentStatus(ctx context.Context, appointmentID, rawStatus string, actorID uuid.UUID) (*model.Appointment, error) {
	status, ok := model.ParseAppointmentStatus(rawStatus)
	if !ok || status == model.AppointmentPending {
		return nil, ErrInvalidDecision
	}
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	property, err := s.property(ctx, appt.PropertyID)
	if err != nil {
		return nil, err
	}
	if !isSellerSide(property, actorID) {
		return nil, ErrNotPropertyOwner
	}

	updated, err := s.store.UpdateAppointmentStatus(ctx, appt.ID, status)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if _, err := s.notifier.NotifyAppointmentStatus(ctx, property, updated); err != nil {
		logger.Error("appointment status notification failed", "appointment_id", updated.ID, "err", err)
	}
	emitAll(ctx, s.emitter, appointmentEvent(model.EventAppointmentUpdated, property, updated))
	return updated, nil
}

func (s *AppointmentService) ListSellerAppointments(ctx context.Context, sellerID uuid.UUID) ([]*model.Appointment, error) {
	ids, err := s.properties.ListIDsBySeller(ctx, sellerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(ids) == 0 {
		return []*model.Appointment{}, nil
	}
	items, err := s.store.ListAppointments(ctx, model.AppointmentFilter{PropertyIDs: ids})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

func (s *AppointmentService) ListBuyerAppointments(ctx context.Context, buyerID uuid.UUID) ([]*model.Appointment, error) {
	items, err := s.store.ListAppointments(ctx, model.AppointmentFilter{BuyerID: &buyerID})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

func (s *AppointmentService) property(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	p, err := s.properties.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func appointmentEvent(t model.EventType, property *model.Property, appt *model.Appointment) *model.TransactionEvent {
	var agent uuid.UUID
	if property.AgentID != nil {
		agent = *property.AgentID
	}
	ev := model.NewTransactionEvent(t, property.ID, appt.BuyerID, property.UserID, agent)
	ev.Payload = map[string]any{
		"appointmentId": appt.ID,
		"status":        string(appt.Status),
		"date":          appt.Date,
		"time":          appt.Time,
	}
	return ev
}
