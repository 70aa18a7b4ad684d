package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
)

type AppointmentService interface {
	GetVisitSettings(ctx context.Context, propertyID uuid.UUID) (*model.VisitSettings, error)
	SetVisitSettings(ctx context.Context, propertyID, sellerID uuid.UUID, v model.VisitSettings) (*model.VisitSettings, error)
	ProposeAppointment(ctx context.Context, propertyID, buyerID uuid.UUID, date, at string) (*model.Appointment, error)
	SetAppointmentStatus(ctx context.Context, appointmentID, rawStatus string, actorID uuid.UUID) (*model.Appointment, error)
	ListSellerAppointments(ctx context.Context, sellerID uuid.UUID) ([]*model.Appointment, error)
	ListBuyerAppointments(ctx context.Context, buyerID uuid.UUID) ([]*model.Appointment, error)
}

type AppointmentHandler struct {
	svc AppointmentService
}

func NewAppointmentHandler(appointmentService AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		svc: appointmentService,
	}
}

func RegisterAppointmentRoutes(g Routes, h *AppointmentHandler) {
	g.GET("/seller/properties/{propertyId}/visit-settings", h.GetVisitSettings)
	g.PUT("/seller/properties/{propertyId}/visit-settings", h.SetVisitSettings)
	g.POST("/seller/properties/{propertyId}/appointments", h.ProposeAppointment)
	g.GET("/seller/appointments", h.ListSellerAppointments)
	g.PUT("/seller/appointments/{appointmentId}/status", h.SetAppointmentStatus)
	g.GET("/buyer/appointments", h.ListBuyerAppointments)
}

type visitSettingsRequest struct {
	PresenceType   string                      `json:"presenceType" validate:"required"`
	SchedulingType string                      `json:"schedulingType" validate:"required"`
	Availability   map[string][]model.TimeSlot `json:"availability"`
}

type proposeAppointmentRequest struct {
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

type appointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *AppointmentHandler) GetVisitSettings(ctx *xhttp.RequestCtx) {
	propertyID, err := pathUUID(ctx, "propertyId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	v, err := h.svc.GetVisitSettings(ctx, propertyID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, v)
}

func (h *AppointmentHandler) SetVisitSettings(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	propertyID, err := pathUUID(ctx, "propertyId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req visitSettingsRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	v, err := h.svc.SetVisitSettings(ctx, propertyID, a.ID, model.VisitSettings{
		PresenceType:   model.PresenceType(req.PresenceType),
		SchedulingType: model.SchedulingType(req.SchedulingType),
		Availability:   req.Availability,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, v)
}

func (h *AppointmentHandler) ProposeAppointment(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	propertyID, err := pathUUID(ctx, "propertyId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req proposeAppointmentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	appt, err := h.svc.ProposeAppointment(ctx, propertyID, a.ID, req.Date, req.Time)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, appt)
}

func (h *AppointmentHandler) SetAppointmentStatus(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req appointmentStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	appt, err := h.svc.SetAppointmentStatus(ctx, pathString(ctx, "appointmentId"), req.Status, a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, appt)
}

func (h *AppointmentHandler) ListSellerAppointments(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	items, err := h.svc.ListSellerAppointments(ctx, a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Appointment]{Items: items, Total: int64(len(items))})
}

func (h *AppointmentHandler) ListBuyerAppointments(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	items, err := h.svc.ListBuyerAppointments(ctx, a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Appointment]{Items: items, Total: int64(len(items))})
}
