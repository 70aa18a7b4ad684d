package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/services"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
)

type PropertyService interface {
	Create(ctx context.Context, sellerID uuid.UUID, in services.PropertyInput) (*model.Property, error)
	Update(ctx context.Context, id, actorID uuid.UUID, in services.PropertyInput) (*model.Property, error)
	SetStatus(ctx context.Context, id uuid.UUID, rawStatus string) (*model.Property, error)
	ListSellerProperties(ctx context.Context, sellerID uuid.UUID, limit, offset int) (*services.PropertyPage, error)
	ListAdmin(ctx context.Context, rawStatus string, limit, offset int) (*services.PropertyPage, error)
}

type PropertyHandler struct {
	svc PropertyService
}

func NewPropertyHandler(propertyService PropertyService) *PropertyHandler {
	return &PropertyHandler{
		svc: propertyService,
	}
}

// RegisterPropertyRoutes mounts seller listing management and the admin
// moderation routes.
func RegisterPropertyRoutes(g Routes, h *PropertyHandler, sellerOnly, adminOnly xhttp.MiddlewareFunc) {
	g.POST("/seller/properties", sellerOnly(h.Create))
	g.GET("/seller/properties", sellerOnly(h.ListMine))
	g.PUT("/seller/properties/{propertyId}", sellerOnly(h.Update))

	g.GET("/admin/listings", adminOnly(h.ListAdmin))
	g.PUT("/admin/listings/{propertyId}/approve", adminOnly(h.setStatus(model.PropertyStatusApproved)))
	g.PUT("/admin/listings/{propertyId}/reject", adminOnly(h.setStatus(model.PropertyStatusRejected)))
	g.PUT("/admin/listings/{propertyId}/unavailable", adminOnly(h.setStatus(model.PropertyStatusUnavailable)))
}

type propertyRequest struct {
	Title    string                 `json:"title" validate:"required"`
	Price    float64                `json:"price" validate:"gte=0"`
	Location string                 `json:"location"`
	AgentID  *string                `json:"agentId" validate:"omitempty,uuid"`
	Features model.PropertyFeatures `json:"features"`
}

func (r propertyRequest) input() services.PropertyInput {
	in := services.PropertyInput{
		Title:    r.Title,
		Price:    r.Price,
		Location: r.Location,
		Features: r.Features,
	}
	if r.AgentID != nil {
		id := uuid.MustParse(*r.AgentID)
		in.AgentID = &id
	}
	return in
}

func (h *PropertyHandler) Create(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req propertyRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	p, err := h.svc.Create(ctx, a.ID, req.input())
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *PropertyHandler) Update(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathUUID(ctx, "propertyId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req propertyRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}

	p, err := h.svc.Update(ctx, id, a.ID, req.input())
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *PropertyHandler) ListMine(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, offset := page(ctx)
	out, err := h.svc.ListSellerProperties(ctx, a.ID, limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *PropertyHandler) ListAdmin(ctx *xhttp.RequestCtx) {
	limit, offset := page(ctx)
	out, err := h.svc.ListAdmin(ctx, query(ctx, "status"), limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *PropertyHandler) setStatus(status model.PropertyStatus) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		id, err := pathUUID(ctx, "propertyId")
		if err != nil {
			writeError(ctx, err)
			return
		}
		p, err := h.svc.SetStatus(ctx, id, string(status))
		if err != nil {
			writeError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, p)
	}
}
