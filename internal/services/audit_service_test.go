package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/database/testutil"
	"github.com/crewlink/crewlink/internal/models"
)

func TestAuditLogAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		ActorID:  "admin-1",
		Action:   "invite.dispatch",
		Resource: "team-1",
		Result:   "success",
		Metadata: map[string]any{"created": 3},
	}))
	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		ActorID:  "admin-2",
		Action:   "slot.accept",
		Resource: "slot-1",
		Result:   "failure",
	}))

	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: "slot.accept"}))

	all, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	byActor, total, err := svc.List(context.Background(), AuditListOptions{
		Filters: AuditFilters{ActorID: "admin-1"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "invite.dispatch", byActor[0].Action)
	require.Contains(t, byActor[0].Metadata, `"created":3`)

	failures, total, err := svc.List(context.Background(), AuditListOptions{
		Filters: AuditFilters{Result: "failure", Action: "slot.accept"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "slot-1", failures[0].Resource)
}

func TestAuditListTimeWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), AuditEntry{Action: "slot.accept", Result: "success"}))

	past := time.Now().Add(-time.Hour)
	recent, total, err := svc.List(context.Background(), AuditListOptions{
		Filters: AuditFilters{Since: &past},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, recent, 1)

	none, total, err := svc.List(context.Background(), AuditListOptions{
		Filters: AuditFilters{Until: &past},
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, none)
}

func TestAuditCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), AuditEntry{Action: "slot.accept", Result: "success"}))

	stale := models.AuditLog{Action: "invite.dispatch", Result: "success"}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Model(&stale).
		Update("created_at", time.Now().AddDate(0, 0, -120)).Error)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}
