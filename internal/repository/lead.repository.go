package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrLeadNotFound        = errors.New("lead not found")
	ErrDuplicateActiveLead = errors.New("an active lead already exists for this property and buyer")
)

type LeadRepository struct {
	*pg.DB
}

func NewLeadRepository(db *pg.DB) *LeadRepository {
	return &LeadRepository{
		db,
	}
}

// Create inserts a lead. A second active lead for the same pair is rejected by
// the database and reported as ErrDuplicateActiveLead.
func (r *LeadRepository) Create(ctx context.Context, lead *model.PropertyLead) (*model.PropertyLead, error) {
	entity := toLeadEntity(lead)
	if entity.Status == "" {
		entity.Status = string(model.StagePending)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateActiveLead
		}
		return nil, err
	}
	return toLeadModel(entity), nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PropertyLead, error) {
	var entity LeadEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return toLeadModel(&entity), nil
}

// FindActive returns the pair's active lead or ErrLeadNotFound.
func (r *LeadRepository) FindActive(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.PropertyLead, error) {
	return r.findOne(ctx, propertyID, buyerID, false)
}

// FindCancelled returns the most recently touched cancelled lead of the pair.
func (r *LeadRepository) FindCancelled(ctx context.Context, propertyID, buyerID uuid.UUID) (*model.PropertyLead, error) {
	return r.findOne(ctx, propertyID, buyerID, true)
}

func (r *LeadRepository) findOne(ctx context.Context, propertyID, buyerID uuid.UUID, cancelled bool) (*model.PropertyLead, error) {
	var entity LeadEntity
	err := r.Read(ctx).
		Where("property_id = ? AND buyer_id = ? AND interest_cancelled = ?", propertyID, buyerID, cancelled).
		Order("updated_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return toLeadModel(&entity), nil
}

// SetInterestCancelled flips the cancelled flag and, when status is given,
// the lead status in the same statement.
func (r *LeadRepository) SetInterestCancelled(ctx context.Context, id uuid.UUID, cancelled bool, status *model.LeadStatus) (*model.PropertyLead, error) {
	updates := map[string]any{"interest_cancelled": cancelled}
	if status != nil {
		updates["status"] = string(*status)
	}
	res := r.Write(ctx).Model(&LeadEntity{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateActiveLead
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrLeadNotFound
	}
	return r.getForWrite(ctx, id)
}

// CancelByPair cancels every active lead of the pair and returns how many
// rows changed.
func (r *LeadRepository) CancelByPair(ctx context.Context, propertyID, buyerID uuid.UUID) (int64, error) {
	res := r.Write(ctx).Model(&LeadEntity{}).
		Where("property_id = ? AND buyer_id = ? AND interest_cancelled = ?", propertyID, buyerID, false).
		Updates(map[string]any{"interest_cancelled": true, "status": string(model.StageCancelled)})
	return res.RowsAffected, res.Error
}

func (r *LeadRepository) UpdateDetails(ctx context.Context, id uuid.UUID, status model.LeadStatus, notes *string) (*model.PropertyLead, error) {
	updates := map[string]any{"status": string(status)}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := r.Write(ctx).Model(&LeadEntity{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrLeadNotFound
	}
	return r.getForWrite(ctx, id)
}

func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&LeadEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context, f model.LeadFilter) ([]*model.PropertyLead, int64, error) {
	q := r.Read(ctx).Model(&LeadEntity{})
	if len(f.PropertyIDs) > 0 {
		q = q.Where("property_id IN ?", f.PropertyIDs)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if !f.IncludeCancelled {
		q = q.Where("interest_cancelled = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	var entities []*LeadEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toLeadModels(entities), total, nil
}

const withoutTransaction = "NOT EXISTS (SELECT 1 FROM transactions t WHERE t.origin_lead_id = property_leads.id)"

// ListWithoutTransaction returns leads no transaction originated from, newest
// first.
func (r *LeadRepository) ListWithoutTransaction(ctx context.Context, limit int) ([]*model.PropertyLead, error) {
	limit, _ = pageBounds(limit, 0)
	var entities []*LeadEntity
	err := r.Read(ctx).
		Where(withoutTransaction).
		Order("created_at DESC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toLeadModels(entities), nil
}

// CountWithoutTransaction counts every lead ListWithoutTransaction could
// return, ignoring any limit.
func (r *LeadRepository) CountWithoutTransaction(ctx context.Context) (int64, error) {
	var total int64
	err := r.Read(ctx).Model(&LeadEntity{}).Where(withoutTransaction).Count(&total).Error
	return total, err
}

func (r *LeadRepository) getForWrite(ctx context.Context, id uuid.UUID) (*model.PropertyLead, error) {
	var entity LeadEntity
	if err := r.Write(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return toLeadModel(&entity), nil
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
