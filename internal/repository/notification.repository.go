package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

// CreateMany inserts all rows in one statement; inside WithinTransaction it
// shares the caller's transaction.
func (r *NotificationRepository) CreateMany(ctx context.Context, items []*model.Notification) ([]*model.Notification, error) {
	if len(items) == 0 {
		return nil, nil
	}
	entities := make([]*NotificationEntity, 0, len(items))
	for _, n := range items {
		entities = append(entities, toNotificationEntity(n))
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Notification, 0, len(entities))
	for _, e := range entities {
		out = append(out, toNotificationModel(e))
	}
	return out, nil
}

// List returns a page of the recipient's notifications, the total matching
// the filter and the recipient's unread count.
func (r *NotificationRepository) List(ctx context.Context, f model.NotificationFilter) ([]*model.Notification, int64, int64, error) {
	base := r.Read(ctx).Model(&NotificationEntity{}).Where("recipient_id = ?", f.RecipientID)

	var unread int64
	if err := base.Session(&gorm.Session{}).Where("is_read = ?", false).Count(&unread).Error; err != nil {
		return nil, 0, 0, err
	}

	q := base.Session(&gorm.Session{})
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	var entities []*NotificationEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, 0, err
	}
	out := make([]*model.Notification, 0, len(entities))
	for _, e := range entities {
		out = append(out, toNotificationModel(e))
	}
	return out, total, unread, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	res := r.Write(ctx).Model(&NotificationEntity{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := r.Write(ctx).Model(&NotificationEntity{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := r.Write(ctx).Where("recipient_id = ?", recipientID).Delete(&NotificationEntity{})
	return res.RowsAffected, res.Error
}
