package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/services"
	"github.com/nimasrn/property-marketplace/internal/stream"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
)

type TransactionService interface {
	AdvanceStage(ctx context.Context, ref model.TransactionRef, rawStage string, actorID uuid.UUID) (*model.TransactionWithProgress, error)
	Get(ctx context.Context, id uuid.UUID) (*model.TransactionWithProgress, error)
	ListAdmin(ctx context.Context, f services.AdminListFilter) (*services.AdminListPage, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Transaction, int64, error)
}

// Subscriber hands out live update streams per user.
type Subscriber interface {
	Subscribe(userID uuid.UUID) *stream.Subscription
}

type TransactionHandler struct {
	svc TransactionService
	hub Subscriber
}

func NewTransactionHandler(transactionService TransactionService, hub Subscriber) *TransactionHandler {
	return &TransactionHandler{
		svc: transactionService,
		hub: hub,
	}
}

// RegisterTransactionRoutes mounts the transaction routes on an authenticated
// group. The stream is open to every caller, the rest needs adminOnly.
func RegisterTransactionRoutes(g Routes, h *TransactionHandler, adminOnly xhttp.MiddlewareFunc) {
	g.GET("/admin/transactions/stream", h.Stream)
	g.GET("/admin/transactions", adminOnly(h.ListAdmin))
	g.GET("/admin/transactions/{id}", adminOnly(h.Get))
	g.PUT("/admin/transactions/{id}/stage", adminOnly(h.AdvanceStage))
	g.GET("/transactions", h.ListMine)
}

type advanceStageRequest struct {
	Stage  string `json:"stage" validate:"required"`
	Origin string `json:"origin"`
}

func (h *TransactionHandler) AdvanceStage(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathUUID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req advanceStageRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	origin, ok := model.ParseOrigin(req.Origin)
	if !ok {
		writeError(ctx, apperr.Validation("origin must be one of transaction, lead, connection"))
		return
	}

	out, err := h.svc.AdvanceStage(ctx, model.TransactionRef{Origin: origin, ID: id}, req.Stage, a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *TransactionHandler) Get(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	out, err := h.svc.Get(ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *TransactionHandler) ListAdmin(ctx *xhttp.RequestCtx) {
	limit, offset := page(ctx)
	out, err := h.svc.ListAdmin(ctx, services.AdminListFilter{Limit: limit, Offset: offset})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *TransactionHandler) ListMine(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, offset := page(ctx)
	items, total, err := h.svc.ListForUser(ctx, a.ID, limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Transaction]{Items: items, Total: total})
}

// Stream keeps the connection open and pushes the caller's transaction
// updates as server-sent events.
func (h *TransactionHandler) Stream(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	sub := h.hub.Subscribe(a.ID)
	if sub == nil {
		writeJSON(ctx, xhttp.StatusServiceUnavailable, map[string]string{"error": "stream unavailable"})
		return
	}
	stream.Serve(ctx, sub, stream.HeartbeatInterval)
}
