package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	recipient := uuid.New()
	other := uuid.New()
	created, err := repo.CreateMany(ctx, []*model.Notification{
		{RecipientID: recipient, Type: model.NotificationInterested, Title: "a", Message: "m1",
			Metadata: map[string]any{"leadId": "x", "shouldOpenModal": false}},
		{RecipientID: recipient, Type: model.NotificationStageUpdate, Title: "b", Message: "m2"},
		{RecipientID: other, Type: model.NotificationStageUpdate, Title: "c", Message: "m3"},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	items, total, unread, err := repo.List(ctx, model.NotificationFilter{RecipientID: recipient})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(2), unread)
	assert.Len(t, items, 2)

	var withMeta *model.Notification
	for _, n := range items {
		if n.Type == model.NotificationInterested {
			withMeta = n
		}
	}
	require.NotNil(t, withMeta)
	assert.Equal(t, "x", withMeta.Metadata["leadId"])
	assert.Equal(t, false, withMeta.Metadata["shouldOpenModal"])

	require.NoError(t, repo.MarkRead(ctx, created[0].ID, recipient))
	assert.ErrorIs(t, repo.MarkRead(ctx, created[0].ID, other), ErrNotificationNotFound)

	_, total, unread, err = repo.List(ctx, model.NotificationFilter{RecipientID: recipient, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), unread)

	n, err := repo.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteAll(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, total, _, err = repo.List(ctx, model.NotificationFilter{RecipientID: other})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestNotificationRepository_CreateManyEmpty(t *testing.T) {
	db := setupTestDB(t)
	out, err := NewNotificationRepository(db).CreateMany(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}
