package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/database/testutil"
	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/notifications"
)

func TestNotificationCreateAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil, nil)
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), notifications.EventOfferSent, CreateNotificationInput{
		RecipientID: "maria@example.com",
		Type:        "offer.sent",
		Title:       "New team invitation",
		Message:     "You have been invited.",
		Metadata:    map[string]any{"role": "chef"},
	})
	require.NoError(t, err)
	require.Equal(t, "info", created.Severity)
	require.Equal(t, "chef", created.Metadata["role"])
	require.False(t, created.IsRead)

	_, err = svc.Create(context.Background(), notifications.EventOfferSent, CreateNotificationInput{
		Type: "offer.sent",
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), notifications.EventOfferSent, CreateNotificationInput{
		RecipientID: "maria@example.com",
	})
	require.Error(t, err)

	items, err := svc.ListForRecipient(context.Background(), "maria@example.com", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	other, err := svc.ListForRecipient(context.Background(), "someone-else", 10, 0)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestNotificationMarkRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil, nil)
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), notifications.EventSlotAccepted, CreateNotificationInput{
		RecipientID: "admin-1",
		Type:        "slot.accepted",
		Title:       "Position filled",
	})
	require.NoError(t, err)

	read, err := svc.MarkRead(context.Background(), "admin-1", created.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	// a different principal cannot touch the row
	_, err = svc.MarkRead(context.Background(), "admin-2", created.ID)
	require.Error(t, err)
}

func TestNotificationMarkAllRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Create(context.Background(), notifications.EventOfferSent, CreateNotificationInput{
			RecipientID: "maria@example.com",
			Type:        "offer.sent",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(context.Background(), "maria@example.com"))

	items, err := svc.ListForRecipient(context.Background(), "maria@example.com", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		require.True(t, item.IsRead)
	}
}

func TestNotificationCleanupRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil, nil)
	require.NoError(t, err)

	fresh, err := svc.Create(context.Background(), notifications.EventOfferSent, CreateNotificationInput{
		RecipientID: "maria@example.com",
		Type:        "offer.sent",
	})
	require.NoError(t, err)
	_, err = svc.MarkRead(context.Background(), "maria@example.com", fresh.ID)
	require.NoError(t, err)

	stale, err := svc.Create(context.Background(), notifications.EventOfferSent, CreateNotificationInput{
		RecipientID: "maria@example.com",
		Type:        "offer.sent",
	})
	require.NoError(t, err)
	_, err = svc.MarkRead(context.Background(), "maria@example.com", stale.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Notification{}).
		Where("id = ?", stale.ID).
		Update("created_at", time.Now().AddDate(0, 0, -60)).Error)

	removed, err := svc.CleanupRead(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	items, err := svc.ListForRecipient(context.Background(), "maria@example.com", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, fresh.ID, items[0].ID)
}
