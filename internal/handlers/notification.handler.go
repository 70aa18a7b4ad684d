package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/services"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
)

type NotificationService interface {
	List(ctx context.Context, f model.NotificationFilter) (*services.NotificationPage, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type NotificationHandler struct {
	svc NotificationService
}

func NewNotificationHandler(notificationService NotificationService) *NotificationHandler {
	return &NotificationHandler{
		svc: notificationService,
	}
}

func RegisterNotificationRoutes(g Routes, h *NotificationHandler) {
	g.GET("/notifications", h.List)
	g.PATCH("/notifications/read-all", h.MarkAllRead)
	g.PATCH("/notifications/{id}/read", h.MarkRead)
	g.DELETE("/notifications", h.DeleteAll)
}

func (h *NotificationHandler) List(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, offset := page(ctx)
	out, err := h.svc.List(ctx, model.NotificationFilter{
		RecipientID: a.ID,
		UnreadOnly:  queryBool(ctx, "unread"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *NotificationHandler) MarkRead(ctx *xhttp.RequestCtx) {
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
	if err := h.svc.MarkRead(ctx, id, a.ID); err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"success": true})
}

func (h *NotificationHandler) MarkAllRead(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	n, err := h.svc.MarkAllRead(ctx, a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) DeleteAll(ctx *xhttp.RequestCtx) {
	a, err := actor(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	n, err := h.svc.DeleteAll(ctx, a.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]int64{"deleted": n})
}
