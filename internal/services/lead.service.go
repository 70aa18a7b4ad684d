package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/prom"
)

const maxInterestAttempts = 3

var (
	ErrOwnInterest      = apperr.OwnerConflict("Δεν μπορείτε να εκδηλώσετε ενδιαφέρον για ακίνητο που έχετε καταχωρήσει εσείς")
	ErrPropertyNotFound = apperr.NotFound("Το ακίνητο δεν βρέθηκε")
	ErrLeadNotFound     = apperr.NotFound("lead not found")
	ErrNoActiveInterest = apperr.NotFound("no active interest for this property")
	ErrNotLeadParty     = apperr.Forbidden("only the buyer or the seller may change this lead")
	ErrNotPropertyOwner = apperr.Forbidden("only the property's seller may do this")
)

type LeadService struct {
	db          Transactor
	leads       LeadRepository
	connections ConnectionRepository
	txs         TransactionRepository
	properties  PropertyRepository
	users       UserRepository
	notifier    *NotificationService
	emitter     EventEmitter
}

func NewLeadService(db Transactor, leads LeadRepository, connections ConnectionRepository, txs TransactionRepository,
	properties PropertyRepository, users UserRepository, notifier *NotificationService, emitter EventEmitter) *LeadService {
	return &LeadService{
		db:          db,
		leads:       leads,
		connections: connections,
		txs:         txs,
		properties:  properties,
		users:       users,
		notifier:    notifier,
		emitter:     orNop(emitter),
	}
}

type InterestResult struct {
	Lead        *model.PropertyLead `json:"lead"`
	Transaction *model.Transaction  `json:"transaction"`
	Restored    bool                `json:"restored"`
}

// ExpressInterest records the buyer's interest in a property. An active lead
// is reused, a cancelled one is reactivated, otherwise a new one is created.
// When a concurrent request wins the insert the whole unit is retried and
// picks up the winner's lead.
func (s *LeadService) ExpressInterest(ctx context.Context, propertyID, buyerID uuid.UUID) (*InterestResult, error) {
	property, err := s.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property.UserID == buyerID {
		return nil, ErrOwnInterest
	}
	buyer, err := s.users.GetByID(ctx, buyerID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.Unauthorized("unknown user")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var res *InterestResult
	for attempt := 1; attempt <= maxInterestAttempts; attempt++ {
		res, err = s.expressOnce(ctx, property, buyer)
		if !errors.Is(err, repository.ErrDuplicateActiveLead) {
			break
		}
		logger.Warn("concurrent interest detected, retrying", "property_id", propertyID, "buyer_id", buyerID, "attempt", attempt)
	}
	if errors.Is(err, repository.ErrDuplicateActiveLead) {
		return nil, apperr.Conflict("interest is being registered, try again")
	}
	if err != nil {
		return nil, apperr.Ensure(err)
	}

	prom.IncLeadAction("express")
	evType := model.EventInterestExpressed
	if res.Restored {
		evType = model.EventInterestRestored
	}
	ev := transactionEvent(evType, res.Transaction)
	ev.LeadID = &res.Lead.ID
	emitAll(ctx, s.emitter, ev)
	return res, nil
}

func (s *LeadService) expressOnce(ctx context.Context, property *model.Property, buyer *model.User) (*InterestResult, error) {
	var res InterestResult
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		lead, err := s.resolveLead(ctx, property, buyer.ID)
		if err != nil {
			return err
		}
		tx, restored, err := s.resolveTransaction(ctx, lead, property)
		if err != nil {
			return err
		}
		if _, err := s.notifier.NotifyNewInterest(ctx, lead, property, tx, buyer); err != nil {
			return err
		}
		res = InterestResult{Lead: lead, Transaction: tx, Restored: restored}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *LeadService) resolveLead(ctx context.Context, property *model.Property, buyerID uuid.UUID) (*model.PropertyLead, error) {
	lead, err := s.leads.FindActive(ctx, property.ID, buyerID)
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, repository.ErrLeadNotFound) {
		return nil, err
	}

	lead, err = s.leads.FindCancelled(ctx, property.ID, buyerID)
	if err == nil {
		pending := model.StagePending
		return s.leads.SetInterestCancelled(ctx, lead.ID, false, &pending)
	}
	if !errors.Is(err, repository.ErrLeadNotFound) {
		return nil, err
	}

	return s.leads.Create(ctx, &model.PropertyLead{
		PropertyID: property.ID,
		BuyerID:    buyerID,
		AgentID:    property.AgentID,
		Status:     model.StagePending,
	})
}

// resolveTransaction reuses the pair's active transaction, restores one the
// buyer cancelled, or opens a new INTERESTED one.
func (s *LeadService) resolveTransaction(ctx context.Context, lead *model.PropertyLead, property *model.Property) (*model.Transaction, bool, error) {
	tx, err := s.txs.FindActiveByPair(ctx, property.ID, lead.BuyerID)
	if err == nil {
		return tx, false, nil
	}
	if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, false, err
	}

	tx, err = s.txs.FindCancelledByPair(ctx, property.ID, lead.BuyerID)
	if err != nil && !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, false, err
	}
	if err == nil && tx.InterestCancelled {
		tx.Status = model.TransactionStatusInterested
		tx.Stage = model.StagePending
		tx.InterestCancelled = false
		tx.OriginLeadID = &lead.ID
		restored, err := s.txs.UpdateState(ctx, tx)
		if err != nil {
			return nil, false, err
		}
		_, err = s.txs.AppendProgress(ctx, &model.TransactionProgress{
			TransactionID: restored.ID,
			Stage:         model.StagePending,
			Note:          noteTransactionRestored,
			CreatedBy:     lead.BuyerID,
		})
		return restored, true, err
	}

	created, err := s.txs.Create(ctx, &model.Transaction{
		PropertyID:   property.ID,
		BuyerID:      lead.BuyerID,
		SellerID:     property.UserID,
		AgentID:      property.AgentID,
		Status:       model.TransactionStatusInterested,
		Stage:        model.StagePending,
		OriginLeadID: &lead.ID,
	})
	return created, false, err
}

// CancelInterest toggles the lead's cancelled flag. Reinstating resets the
// status to PENDING. Transactions are left alone.
func (s *LeadService) CancelInterest(ctx context.Context, leadID, actorID uuid.UUID, cancelled bool) (*model.PropertyLead, error) {
	lead, property, err := s.leadWithProperty(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.BuyerID != actorID && !isSellerSide(property, actorID) {
		return nil, ErrNotLeadParty
	}

	var status *model.LeadStatus
	if !cancelled {
		pending := model.StagePending
		status = &pending
	}
	updated, err := s.leads.SetInterestCancelled(ctx, lead.ID, cancelled, status)
	if errors.Is(err, repository.ErrDuplicateActiveLead) {
		return nil, apperr.Conflict("another active lead exists for this property and buyer")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	action, evType := "cancel", model.EventInterestCancelled
	if !cancelled {
		action, evType = "restore", model.EventInterestRestored
	}
	prom.IncLeadAction(action)
	emitAll(ctx, s.emitter, leadEvent(evType, updated, property))
	return updated, nil
}

// WithdrawInterest is the buyer walking away from a property: the lead, its
// connections and the transaction are cancelled together and both sides are
// notified.
func (s *LeadService) WithdrawInterest(ctx context.Context, propertyID, buyerID uuid.UUID) error {
	property, err := s.property(ctx, propertyID)
	if err != nil {
		return err
	}
	lead, err := s.leads.FindActive(ctx, propertyID, buyerID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return ErrNoActiveInterest
	}
	if err != nil {
		return apperr.Internal(err)
	}
	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return apperr.Internal(err)
	}

	var cancelledTx *model.Transaction
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.leads.CancelByPair(ctx, propertyID, buyerID); err != nil {
			return err
		}
		if _, err := s.connections.CancelByPair(ctx, buyerID, propertyID); err != nil {
			return err
		}

		tx, err := s.txs.FindActiveByPair(ctx, propertyID, buyerID)
		if err != nil && !errors.Is(err, repository.ErrTransactionNotFound) {
			return err
		}
		if tx != nil {
			tx.Status = model.TransactionStatusCancelled
			tx.Stage = model.StageCancelled
			tx.InterestCancelled = true
			if cancelledTx, err = s.txs.UpdateState(ctx, tx); err != nil {
				return err
			}
			_, err = s.txs.AppendProgress(ctx, &model.TransactionProgress{
				TransactionID: tx.ID,
				Stage:         model.StageCancelled,
				Note:          noteTransactionCancelled,
				CreatedBy:     buyerID,
			})
			if err != nil {
				return err
			}
		}
		_, err = s.notifier.NotifyInterestCancelled(ctx, lead, property, cancelledTx, buyer)
		return err
	})
	if err != nil {
		return apperr.Ensure(err)
	}

	prom.IncLeadAction("withdraw")
	ev := leadEvent(model.EventInterestCancelled, lead, property)
	if cancelledTx != nil {
		ev = transactionEvent(model.EventInterestCancelled, cancelledTx)
		ev.LeadID = &lead.ID
	}
	emitAll(ctx, s.emitter, ev)
	return nil
}

// DeleteLead hard-deletes the lead, removes the pair's buyer-agent connections
// and marks the pair's transactions CANCELLED in one database transaction.
func (s *LeadService) DeleteLead(ctx context.Context, leadID, actorID uuid.UUID) error {
	lead, property, err := s.leadWithProperty(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.BuyerID != actorID && property.UserID != actorID {
		return ErrNotLeadParty
	}

	var cancelled []uuid.UUID
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.leads.Delete(ctx, lead.ID); err != nil {
			return err
		}
		if _, err := s.connections.DeleteByPair(ctx, lead.BuyerID, lead.PropertyID); err != nil {
			return err
		}
		cancelled, err = s.txs.CancelByPair(ctx, lead.PropertyID, lead.BuyerID)
		return err
	})
	if errors.Is(err, repository.ErrLeadNotFound) {
		return ErrLeadNotFound
	}
	if err != nil {
		return apperr.Internal(err)
	}

	prom.IncLeadAction("delete")
	ev := leadEvent(model.EventInterestRetracted, lead, property)
	ev.Stage = model.StageCancelled
	ev.Payload = map[string]any{"cancelledTransactions": cancelled}
	emitAll(ctx, s.emitter, ev)
	return nil
}

// UpdateLead lets the seller side move a lead's status and edit its notes.
func (s *LeadService) UpdateLead(ctx context.Context, leadID, actorID uuid.UUID, rawStatus string, notes *string) (*model.PropertyLead, error) {
	status, ok := model.ParseLeadStatus(rawStatus)
	if !ok {
		return nil, apperr.InvalidStage(rawStatus)
	}
	lead, property, err := s.leadWithProperty(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !isSellerSide(property, actorID) {
		return nil, ErrNotPropertyOwner
	}
	updated, err := s.leads.UpdateDetails(ctx, lead.ID, status, notes)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	prom.IncLeadAction("update")
	ev := leadEvent(model.EventLeadUpdated, updated, property)
	ev.Stage = updated.Status
	emitAll(ctx, s.emitter, ev)
	return updated, nil
}

type LeadPage struct {
	Items []*model.LeadView `json:"items"`
	Total int64             `json:"total"`
}

func (s *LeadService) ListBuyerInterests(ctx context.Context, buyerID uuid.UUID, limit, offset int) (*LeadPage, error) {
	leads, total, err := s.leads.List(ctx, model.LeadFilter{BuyerID: &buyerID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	views, err := s.decorate(ctx, leads)
	if err != nil {
		return nil, err
	}
	return &LeadPage{Items: views, Total: total}, nil
}

// ListSellerLeads returns leads on every property the seller owns or handles
// as agent.
func (s *LeadService) ListSellerLeads(ctx context.Context, sellerID uuid.UUID, includeCancelled bool, limit, offset int) (*LeadPage, error) {
	propertyIDs, err := s.properties.ListIDsBySeller(ctx, sellerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(propertyIDs) == 0 {
		return &LeadPage{Items: []*model.LeadView{}}, nil
	}
	leads, total, err := s.leads.List(ctx, model.LeadFilter{
		PropertyIDs:      propertyIDs,
		IncludeCancelled: includeCancelled,
		Limit:            limit,
		Offset:           offset,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	views, err := s.decorate(ctx, leads)
	if err != nil {
		return nil, err
	}
	return &LeadPage{Items: views, Total: total}, nil
}

func (s *LeadService) decorate(ctx context.Context, leads []*model.PropertyLead) ([]*model.LeadView, error) {
	views := make([]*model.LeadView, 0, len(leads))
	if len(leads) == 0 {
		return views, nil
	}
	propertyIDs := make([]uuid.UUID, 0, len(leads))
	buyerIDs := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		propertyIDs = append(propertyIDs, l.PropertyID)
		buyerIDs = append(buyerIDs, l.BuyerID)
	}
	properties, err := s.properties.GetByIDs(ctx, propertyIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	buyers, err := s.users.GetByIDs(ctx, buyerIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	txs, err := s.txs.LatestByPairs(ctx, leads)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, l := range leads {
		tx := txs[repository.PairKey(l.PropertyID, l.BuyerID)]
		views = append(views, &model.LeadView{
			Lead:           l,
			Property:       properties[l.PropertyID],
			Buyer:          buyers[l.BuyerID],
			Transaction:    tx,
			EffectiveStage: model.EffectiveStage(tx, nil, l),
		})
	}
	return views, nil
}

// CreateConnection links a buyer to the calling agent for one property. An
// existing active connection is returned as is.
func (s *LeadService) CreateConnection(ctx context.Context, agentID, buyerID, propertyID uuid.UUID) (*model.BuyerAgentConnection, error) {
	if _, err := s.property(ctx, propertyID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, buyerID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("buyer not found")
		}
		return nil, apperr.Internal(err)
	}
	if conn, err := s.connections.FindActive(ctx, buyerID, propertyID); err == nil {
		return conn, nil
	} else if !errors.Is(err, repository.ErrConnectionNotFound) {
		return nil, apperr.Internal(err)
	}
	conn, err := s.connections.Create(ctx, &model.BuyerAgentConnection{
		BuyerID:    buyerID,
		AgentID:    agentID,
		PropertyID: propertyID,
		Status:     model.ConnectionStatusActive,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	prom.IncLeadAction("connect")
	return conn, nil
}

func (s *LeadService) property(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	p, err := s.properties.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *LeadService) leadWithProperty(ctx context.Context, leadID uuid.UUID) (*model.PropertyLead, *model.Property, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return nil, nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	property, err := s.property(ctx, lead.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	return lead, property, nil
}

// isSellerSide reports whether actor owns the property or handles it as agent.
func isSellerSide(p *model.Property, actor uuid.UUID) bool {
	return p.UserID == actor || (p.AgentID != nil && *p.AgentID == actor)
}

func leadEvent(t model.EventType, lead *model.PropertyLead, property *model.Property) *model.TransactionEvent {
	var agent uuid.UUID
	if property.AgentID != nil {
		agent = *property.AgentID
	}
	ev := model.NewTransactionEvent(t, lead.PropertyID, lead.BuyerID, property.UserID, agent)
	id := lead.ID
	ev.LeadID = &id
	ev.Stage = lead.Status
	return ev
}
