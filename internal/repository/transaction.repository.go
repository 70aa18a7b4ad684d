package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.first(r.Read(ctx).Where("id = ?", id))
}

func (r *TransactionRepository) FindByOriginLead(ctx context.Context, leadID uuid.UUID) (*model.Transaction, error) {
	return r.first(r.Read(ctx).Where("origin_lead_id = ?", leadID).Order("created_at DESC"))
}

func (r *TransactionRepository) FindByOriginConnection(ctx context.Context, connectionID uuid.UUID) (*model.Transaction, error) {
	return r.first(r.Read(ctx).Where("origin_connection_id = ?", connectionID).Order("created_at DESC"))
}

// FindActiveByPair returns the newest non-cancelled transaction of the pair.
func (r *TransactionRepository) FindActiveByPair(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.Transaction, error) {
	return r.first(r.Read(ctx).
		Where("property_id = ? AND buyer_id = ? AND status <> ?", propertyID, buyerID, string(model.TransactionStatusCancelled)).
		Order("created_at DESC"))
}

// FindCancelledByPair returns the newest cancelled transaction of the pair.
func (r *TransactionRepository) FindCancelledByPair(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.Transaction, error) {
	return r.first(r.Read(ctx).
		Where("property_id = ? AND buyer_id = ? AND status = ?", propertyID, buyerID, string(model.TransactionStatusCancelled)).
		Order("updated_at DESC"))
}

func (r *TransactionRepository) first(q *gorm.DB) (*model.Transaction, error) {
	var entity TransactionEntity
	if err := q.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// UpdateState writes status, stage and the cancelled flag of txn. A set
// OriginLeadID relinks the transaction to that lead.
func (r *TransactionRepository) UpdateState(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	updates := map[string]any{
		"status":             string(txn.Status),
		"stage":              string(txn.Stage),
		"interest_cancelled": txn.InterestCancelled,
	}
	if txn.OriginLeadID != nil {
		updates["origin_lead_id"] = *txn.OriginLeadID
	}
	res := r.Write(ctx).Model(&TransactionEntity{}).Where("id = ?", txn.ID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTransactionNotFound
	}
	return r.first(r.Write(ctx).Where("id = ?", txn.ID))
}

func (r *TransactionRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage model.Stage) (*model.Transaction, error) {
	res := r.Write(ctx).Model(&TransactionEntity{}).Where("id = ?", id).Update("stage", string(stage))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTransactionNotFound
	}
	return r.first(r.Write(ctx).Where("id = ?", id))
}

// CancelByPair marks every transaction of the pair CANCELLED and returns the
// ids it touched.
func (r *TransactionRepository) CancelByPair(ctx context.Context, propertyID, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	db := r.Write(ctx)
	err := db.Model(&TransactionEntity{}).
		Where("property_id = ? AND buyer_id = ? AND status <> ?", propertyID, buyerID, string(model.TransactionStatusCancelled)).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return ids, err
	}
	err = db.Model(&TransactionEntity{}).Where("id IN ?", ids).
		Update("status", string(model.TransactionStatusCancelled)).Error
	return ids, err
}

func (r *TransactionRepository) AppendProgress(ctx context.Context, p *model.TransactionProgress) (*model.TransactionProgress, error) {
	entity := toProgressEntity(p)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toProgressModel(entity), nil
}

// ListProgress returns the audit trail newest first.
func (r *TransactionRepository) ListProgress(ctx context.Context, transactionID uuid.UUID) ([]*model.TransactionProgress, error) {
	var entities []*TransactionProgressEntity
	err := r.Read(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.TransactionProgress, 0, len(entities))
	for _, e := range entities {
		out = append(out, toProgressModel(e))
	}
	return out, nil
}

// List returns transactions newest first. With UserID set only those where
// the user is buyer, seller or agent are returned.
func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).Model(&TransactionEntity{})
	if f.UserID != nil {
		q = q.Where("buyer_id = ? OR seller_id = ? OR agent_id = ?", *f.UserID, *f.UserID, *f.UserID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	var entities []*TransactionEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toTransactionModels(entities), total, nil
}

// LatestByPairs maps "propertyID/buyerID" to the newest transaction of each
// pair among the given leads.
func (r *TransactionRepository) LatestByPairs(ctx context.Context, leads []*model.PropertyLead) (map[string]*model.Transaction, error) {
	out := make(map[string]*model.Transaction)
	if len(leads) == 0 {
		return out, nil
	}
	propertyIDs := make([]uuid.UUID, 0, len(leads))
	buyerIDs := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		propertyIDs = append(propertyIDs, l.PropertyID)
		buyerIDs = append(buyerIDs, l.BuyerID)
	}

	var entities []*TransactionEntity
	err := r.Read(ctx).
		Where("property_id IN ? AND buyer_id IN ?", propertyIDs, buyerIDs).
		Order("created_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[PairKey(e.PropertyID, e.BuyerID)] = toTransactionModel(e)
	}
	return out, nil
}

func PairKey(propertyID, buyerID uuid.UUID) string {
	return propertyID.String() + "/" + buyerID.String()
}
