package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"gorm.io/gorm"
)

var ErrConnectionNotFound = errors.New("buyer-agent connection not found")

type ConnectionRepository struct {
	*pg.DB
}

func NewConnectionRepository(db *pg.DB) *ConnectionRepository {
	return &ConnectionRepository{
		db,
	}
}

func (r *ConnectionRepository) Create(ctx context.Context, c *model.BuyerAgentConnection) (*model.BuyerAgentConnection, error) {
	entity := toConnectionEntity(c)
	if entity.Status == "" {
		entity.Status = string(model.ConnectionStatusActive)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toConnectionModel(entity), nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.BuyerAgentConnection, error) {
	var entity ConnectionEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return toConnectionModel(&entity), nil
}

func (r *ConnectionRepository) FindActive(ctx context.Context, buyerID, propertyID uuid.UUID) (*model.BuyerAgentConnection, error) {
	var entity ConnectionEntity
	err := r.Read(ctx).
		Where("buyer_id = ? AND property_id = ? AND status = ?", buyerID, propertyID, string(model.ConnectionStatusActive)).
		Order("created_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return toConnectionModel(&entity), nil
}

func (r *ConnectionRepository) CancelByPair(ctx context.Context, buyerID, propertyID uuid.UUID) (int64, error) {
	res := r.Write(ctx).Model(&ConnectionEntity{}).
		Where("buyer_id = ? AND property_id = ? AND status <> ?", buyerID, propertyID, string(model.ConnectionStatusCancelled)).
		Update("status", string(model.ConnectionStatusCancelled))
	return res.RowsAffected, res.Error
}

func (r *ConnectionRepository) DeleteByPair(ctx context.Context, buyerID, propertyID uuid.UUID) (int64, error) {
	res := r.Write(ctx).
		Where("buyer_id = ? AND property_id = ?", buyerID, propertyID).
		Delete(&ConnectionEntity{})
	return res.RowsAffected, res.Error
}
