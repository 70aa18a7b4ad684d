package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"gorm.io/gorm"
)

var ErrPropertyNotFound = errors.New("property not found")

type PropertyRepository struct {
	*pg.DB
}

func NewPropertyRepository(db *pg.DB) *PropertyRepository {
	return &PropertyRepository{
		db,
	}
}

func (r *PropertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	entity := toPropertyEntity(p)
	if entity.Status == "" {
		entity.Status = string(model.PropertyStatusPending)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toPropertyModel(entity), nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var entity PropertyEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return toPropertyModel(&entity), nil
}

func (r *PropertyRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Property, error) {
	out := make(map[uuid.UUID]*model.Property, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var entities []*PropertyEntity
	if err := r.Read(ctx).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.ID] = toPropertyModel(e)
	}
	return out, nil
}

// ListIDsBySeller returns the ids of every listing the user owns or handles
// as agent.
func (r *PropertyRepository) ListIDsBySeller(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.Read(ctx).Model(&PropertyEntity{}).
		Where("user_id = ? OR agent_id = ?", userID, userID).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateStatus flags a listing; listings are never deleted.
func (r *PropertyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PropertyStatus) error {
	res := r.Write(ctx).Model(&PropertyEntity{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

// Update writes the editable listing fields. Owner and status are left alone.
func (r *PropertyRepository) Update(ctx context.Context, p *model.Property) (*model.Property, error) {
	entity := toPropertyEntity(p)
	res := r.Write(ctx).Model(&PropertyEntity{Model: pg.Model{ID: p.ID}}).
		Select("title", "price", "location", "agent_id", "features", "updated_at").
		Updates(entity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrPropertyNotFound
	}
	var updated PropertyEntity
	if err := r.Write(ctx).Where("id = ?", p.ID).First(&updated).Error; err != nil {
		return nil, err
	}
	return toPropertyModel(&updated), nil
}

func (r *PropertyRepository) List(ctx context.Context, f model.PropertyFilter) ([]*model.Property, int64, error) {
	q := r.Read(ctx).Model(&PropertyEntity{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	var entities []*PropertyEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*model.Property, 0, len(entities))
	for _, e := range entities {
		out = append(out, toPropertyModel(e))
	}
	return out, total, nil
}
