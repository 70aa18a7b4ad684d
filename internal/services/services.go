package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/logger"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
}

type PropertyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Property, error)
	ListIDsBySeller(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type LeadRepository interface {
	Create(ctx context.Context, lead *model.PropertyLead) (*model.PropertyLead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PropertyLead, error)
	FindActive(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.PropertyLead, error)
	FindCancelled(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.PropertyLead, error)
	SetInterestCancelled(ctx context.Context, id uuid.UUID, cancelled bool, status *model.LeadStatus) (*model.PropertyLead, error)
	CancelByPair(ctx context.Context, propertyID, buyerID uuid.UUID) (int64, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, status model.LeadStatus, notes *string) (*model.PropertyLead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f model.LeadFilter) ([]*model.PropertyLead, int64, error)
	ListWithoutTransaction(ctx context.Context, limit int) ([]*model.PropertyLead, error)
	CountWithoutTransaction(ctx context.Context) (int64, error)
}

type ConnectionRepository interface {
	Create(ctx context.Context, c *model.BuyerAgentConnection) (*model.BuyerAgentConnection, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.BuyerAgentConnection, error)
	FindActive(ctx context.Context, buyerID, propertyID uuid.UUID) (*model.BuyerAgentConnection, error)
	CancelByPair(ctx context.Context, buyerID, propertyID uuid.UUID) (int64, error)
	DeleteByPair(ctx context.Context, buyerID, propertyID uuid.UUID) (int64, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByOriginLead(ctx context.Context, leadID uuid.UUID) (*model.Transaction, error)
	FindByOriginConnection(ctx context.Context, connectionID uuid.UUID) (*model.Transaction, error)
	FindActiveByPair(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.Transaction, error)
	FindCancelledByPair(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.Transaction, error)
	UpdateState(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage model.Stage) (*model.Transaction, error)
	CancelByPair(ctx context.Context, propertyID, buyerID uuid.UUID) ([]uuid.UUID, error)
	AppendProgress(ctx context.Context, p *model.TransactionProgress) (*model.TransactionProgress, error)
	ListProgress(ctx context.Context, transactionID uuid.UUID) ([]*model.TransactionProgress, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	LatestByPairs(ctx context.Context, leads []*model.PropertyLead) (map[string]*model.Transaction, error)
}

type NotificationRepository interface {
	CreateMany(ctx context.Context, items []*model.Notification) ([]*model.Notification, error)
	List(ctx context.Context, f model.NotificationFilter) ([]*model.Notification, int64, int64, error) // items, total, unread
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// EventEmitter hands committed changes to the event pipeline.
type EventEmitter interface {
	Emit(ctx context.Context, ev *model.TransactionEvent) error
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, *model.TransactionEvent) error { return nil }

// emitAll runs after commit. A failed emit never fails the request.
func emitAll(ctx context.Context, emitter EventEmitter, events ...*model.TransactionEvent) {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if err := emitter.Emit(ctx, ev); err != nil {
			logger.Error("emit event failed", "type", ev.Type, "event_id", ev.ID, "err", err)
		}
	}
}

func orNop(e EventEmitter) EventEmitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}
