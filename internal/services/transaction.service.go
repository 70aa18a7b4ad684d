package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/prom"
)

type TransactionService struct {
	db          Transactor
	txs         TransactionRepository
	leads       LeadRepository
	connections ConnectionRepository
	properties  PropertyRepository
	notifier    *NotificationService
	emitter     EventEmitter
}

func NewTransactionService(db Transactor, txs TransactionRepository, leads LeadRepository, connections ConnectionRepository,
	properties PropertyRepository, notifier *NotificationService, emitter EventEmitter) *TransactionService {
	return &TransactionService{
		db:          db,
		txs:         txs,
		leads:       leads,
		connections: connections,
		properties:  properties,
		notifier:    notifier,
		emitter:     orNop(emitter),
	}
}

// EnsureTransaction resolves ref to exactly one transaction, creating it from
// the originating lead or connection when none exists yet.
func (s *TransactionService) EnsureTransaction(ctx context.Context, ref model.TransactionRef) (*model.Transaction, error) {
	switch ref.Origin {
	case model.OriginTransaction, "":
		tx, err := s.txs.GetByID(ctx, ref.ID)
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperr.NotFound("transaction not found")
		}
		return tx, apperr.Ensure(err)
	case model.OriginLead:
		return s.ensureFromLead(ctx, ref.ID)
	case model.OriginConnection:
		return s.ensureFromConnection(ctx, ref.ID)
	}
	return nil, apperr.Validation(fmt.Sprintf("unknown origin %q", ref.Origin))
}

func (s *TransactionService) ensureFromLead(ctx context.Context, leadID uuid.UUID) (*model.Transaction, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if tx, err := s.txs.FindByOriginLead(ctx, lead.ID); err == nil {
		return tx, nil
	} else if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, apperr.Internal(err)
	}
	agentID := lead.AgentID
	return s.createFor(ctx, lead.PropertyID, lead.BuyerID, agentID, func(tx *model.Transaction) {
		tx.OriginLeadID = &lead.ID
	})
}

func (s *TransactionService) ensureFromConnection(ctx context.Context, connectionID uuid.UUID) (*model.Transaction, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if errors.Is(err, repository.ErrConnectionNotFound) {
		return nil, apperr.NotFound("connection not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if tx, err := s.txs.FindByOriginConnection(ctx, conn.ID); err == nil {
		return tx, nil
	} else if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, apperr.Internal(err)
	}
	agentID := conn.AgentID
	return s.createFor(ctx, conn.PropertyID, conn.BuyerID, &agentID, func(tx *model.Transaction) {
		tx.OriginConnectionID = &conn.ID
	})
}

// createFor reuses the pair's active transaction if one exists; otherwise it
// opens a PENDING one owned by the property's seller.
func (s *TransactionService) createFor(ctx context.Context, propertyID, buyerID uuid.UUID, agentID *uuid.UUID, origin func(*model.Transaction)) (*model.Transaction, error) {
	if tx, err := s.txs.FindActiveByPair(ctx, propertyID, buyerID); err == nil {
		return tx, nil
	} else if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, apperr.Internal(err)
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, apperr.NotFound("property not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if agentID == nil {
		agentID = property.AgentID
	}
	tx := &model.Transaction{
		PropertyID: propertyID,
		BuyerID:    buyerID,
		SellerID:   property.UserID,
		AgentID:    agentID,
		Status:     model.TransactionStatusPending,
		Stage:      model.StagePending,
	}
	origin(tx)
	created, err := s.txs.Create(ctx, tx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return created, nil
}

// AdvanceStage moves the referenced transaction to rawStage, records the
// progress entry and notifies buyer and agent, all in one database
// transaction. It returns the transaction with its progress newest first.
func (s *TransactionService) AdvanceStage(ctx context.Context, ref model.TransactionRef, rawStage string, actorID uuid.UUID) (*model.TransactionWithProgress, error) {
	stage, ok := model.ParseStage(rawStage)
	if !ok {
		return nil, apperr.InvalidStage(rawStage)
	}

	var out *model.TransactionWithProgress
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.EnsureTransaction(ctx, ref)
		if err != nil {
			return err
		}
		tx, err = s.txs.UpdateStage(ctx, tx.ID, stage)
		if err != nil {
			return apperr.Internal(err)
		}
		_, err = s.txs.AppendProgress(ctx, &model.TransactionProgress{
			TransactionID: tx.ID,
			Stage:         stage,
			Note:          fmt.Sprintf("Stage updated to %s", stage),
			CreatedBy:     actorID,
		})
		if err != nil {
			return apperr.Internal(err)
		}
		if _, err := s.notifier.NotifyStageChange(ctx, tx, stage); err != nil {
			return apperr.Internal(err)
		}
		progress, err := s.txs.ListProgress(ctx, tx.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		out = &model.TransactionWithProgress{
			Transaction:    tx,
			Progress:       progress,
			EffectiveStage: model.EffectiveStage(tx, progress, nil),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prom.IncStageUpdate(string(stage))
	emitAll(ctx, s.emitter, transactionEvent(model.EventStageAdvanced, out.Transaction))
	return out, nil
}

// Get returns a transaction with its progress and effective stage.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*model.TransactionWithProgress, error) {
	tx, err := s.EnsureTransaction(ctx, model.TransactionRef{Origin: model.OriginTransaction, ID: id})
	if err != nil {
		return nil, err
	}
	progress, err := s.txs.ListProgress(ctx, tx.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var lead *model.PropertyLead
	if tx.OriginLeadID != nil {
		if l, err := s.leads.GetByID(ctx, *tx.OriginLeadID); err == nil {
			lead = l
		}
	}
	return &model.TransactionWithProgress{
		Transaction:    tx,
		Progress:       progress,
		EffectiveStage: model.EffectiveStage(tx, progress, lead),
	}, nil
}

type AdminListFilter struct {
	Limit  int
	Offset int
}

type AdminListPage struct {
	Items []*model.AdminListItem `json:"items"`
	Total int64                  `json:"total"`
}

// ListAdmin merges transactions with the leads that have not produced one,
// newest first. Total counts all transactions plus all orphan leads.
func (s *TransactionService) ListAdmin(ctx context.Context, f AdminListFilter) (*AdminListPage, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	window := f.Offset + f.Limit

	txs, txTotal, err := s.txs.List(ctx, model.TransactionFilter{Limit: window})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	orphans, err := s.leads.ListWithoutTransaction(ctx, window)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	orphanTotal, err := s.leads.CountWithoutTransaction(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	items := make([]*model.AdminListItem, 0, len(txs)+len(orphans))
	for _, tx := range txs {
		items = append(items, &model.AdminListItem{
			Kind:           model.AdminItemTransaction,
			ID:             tx.ID,
			PropertyID:     tx.PropertyID,
			BuyerID:        tx.BuyerID,
			AgentID:        tx.AgentID,
			Status:         string(tx.Status),
			EffectiveStage: model.EffectiveStage(tx, nil, nil),
			CreatedAt:      tx.CreatedAt,
		})
	}
	for _, l := range orphans {
		items = append(items, &model.AdminListItem{
			Kind:           model.AdminItemLead,
			ID:             l.ID,
			PropertyID:     l.PropertyID,
			BuyerID:        l.BuyerID,
			AgentID:        l.AgentID,
			Status:         string(l.Status),
			EffectiveStage: model.EffectiveStage(nil, nil, l),
			CreatedAt:      l.CreatedAt,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	page := &AdminListPage{Total: txTotal + orphanTotal}
	if f.Offset >= len(items) {
		page.Items = []*model.AdminListItem{}
		return page, nil
	}
	end := f.Offset + f.Limit
	if end > len(items) {
		end = len(items)
	}
	page.Items = items[f.Offset:end]
	return page, nil
}

// ListForUser returns the transactions where userID takes part.
func (s *TransactionService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Transaction, int64, error) {
	items, total, err := s.txs.List(ctx, model.TransactionFilter{UserID: &userID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func transactionEvent(t model.EventType, tx *model.Transaction) *model.TransactionEvent {
	var agent uuid.UUID
	if tx.AgentID != nil {
		agent = *tx.AgentID
	}
	ev := model.NewTransactionEvent(t, tx.PropertyID, tx.BuyerID, tx.SellerID, agent)
	id := tx.ID
	ev.TransactionID = &id
	ev.LeadID = tx.OriginLeadID
	ev.Stage = tx.Stage
	return ev
}
