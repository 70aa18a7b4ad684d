package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/services"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
)

type LeadService interface {
	ExpressInterest(ctx context.Context, propertyID, buyerID uuid.UUID) (*services.InterestResult, error)
	WithdrawInterest(ctx context.Context, propertyID, buyerID uuid.UUID) error
	ListBuyerInterests(ctx context.Context, buyerID uuid.UUID, limit, offset int) (*services.LeadPage, error)
	ListSellerLeads(ctx context.Context, sellerID uuid.UUID, includeCancelled bool, limit, offset int) (*services.LeadPage, error)
	UpdateLead(ctx context.Context, leadID, actorID uuid.UUID, rawStatus string, notes *string) (*model.PropertyLead, error)
	CancelInterest(ctx context.Context, leadID, actorID uuid.UUID, cancelled bool) (*model.PropertyLead, error)
	DeleteLead(ctx context.Context, leadID, actorID uuid.UUID) error
	CreateConnection(ctx context.Context, agentID, buyerID, propertyID uuid.UUID) (*model.BuyerAgentConnection, error)
}

type LeadHandler struct {
	svc LeadService
}

func NewLeadHandler(leadService LeadService) *LeadHandler {
	return &LeadHandler{
		svc: leadService,
	}
}

// RegisterLeadRoutes mounts the buyer and seller lead routes on an
// authenticated group. agentOnly guards connection creation.
func RegisterLeadRoutes(g Routes, h *LeadHandler, agentOnly xhttp.MiddlewareFunc) {
	g.POST("/buyer/interested-properties", h.ExpressInterest)
	g.GET("/buyer/interested-properties", h.ListBuyerInterests)
	g.DELETE("/buyer/interested-properties/{propertyId}", h.WithdrawInterest)

	g.GET("/seller/leads", h.ListSellerLeads)
	g.PUT("/seller/leads", h.UpdateLead)
	g.PATCH("/seller/leads", h.CancelInterest)
	g.DELETE("/seller/leads", h.DeleteLead)

	g.POST("/agent/connections", agentOnly(h.CreateConnection))
}

type expressInterestRequest struct {
	PropertyID string `json:"propertyId" validate:"required,uuid"`
}

type updateLeadRequest struct {
	LeadID string  `json:"leadId" validate:"required,uuid"`
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type cancelInterestRequest struct {
	LeadID            string `json:"leadId" validate:"required,uuid"`
	InterestCancelled *bool  `json:"interestCancelled" validate:"required"`
}

type createConnectionRequest struct {
	BuyerID    string `json:"buyerId" validate:"required,uuid"`
	PropertyID string `json:"propertyId" validate:"required,uuid"`
}

/* --------------------------------- Buyer ------------------------------------ */

func (h *LeadHandler) ExpressInterest(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req expressInterestRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	res, err := h.svc.ExpressInterest(ctx, uuid.MustParse(req.PropertyID), a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	status := xhttp.StatusCreated
	if res.Restored {
		status = xhttp.StatusOK
	}
	writeJSON(ctx, status, res)
}

func (h *LeadHandler) ListBuyerInterests(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, offset := page(ctx)
	out, err := h.svc.ListBuyerInterests(ctx, a.ID, limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *LeadHandler) WithdrawInterest(ctx *xhttp.RequestCtx) {
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
	if err := h.svc.WithdrawInterest(ctx, propertyID, a.ID); err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"success": true})
}

/* --------------------------------- Seller ----------------------------------- */

func (h *LeadHandler) ListSellerLeads(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, offset := page(ctx)
	out, err := h.svc.ListSellerLeads(ctx, a.ID, queryBool(ctx, "includeCancelled"), limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *LeadHandler) UpdateLead(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req updateLeadRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	lead, err := h.svc.UpdateLead(ctx, uuid.MustParse(req.LeadID), a.ID, req.Status, req.Notes)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, lead)
}

func (h *LeadHandler) CancelInterest(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req cancelInterestRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	lead, err := h.svc.CancelInterest(ctx, uuid.MustParse(req.LeadID), a.ID, *req.InterestCancelled)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, lead)
}

func (h *LeadHandler) DeleteLead(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	leadID, err := queryUUID(ctx, "leadId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.DeleteLead(ctx, leadID, a.ID); err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"success": true})
}

/* --------------------------------- Agent ------------------------------------ */

func (h *LeadHandler) CreateConnection(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req createConnectionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	conn, err := h.svc.CreateConnection(ctx, a.ID, uuid.MustParse(req.BuyerID), uuid.MustParse(req.PropertyID))
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, conn)
}
