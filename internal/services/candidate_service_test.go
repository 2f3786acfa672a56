package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/database/testutil"
)

func TestCandidateLookup(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCandidateService(db)
	require.NoError(t, err)

	seeded := seedCandidate(t, db, "maria@example.com")

	byID, err := svc.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, seeded.Email, byID.Email)

	byEmail, err := svc.FindByEmail(context.Background(), "  MARIA@Example.com ")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, byEmail.ID)

	_, err = svc.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCandidateNotFound)

	_, err = svc.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrCandidateNotFound)

	_, err = svc.FindByEmail(context.Background(), "  ")
	require.Error(t, err)
}

func TestListCandidatesFilters(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCandidateService(db)
	require.NoError(t, err)

	chef := seedCandidate(t, db, "chef@example.com")
	require.NoError(t, db.Model(chef).Update("preferred_role", "Chef").Error)

	retired := seedCandidate(t, db, "retired@example.com")
	require.NoError(t, db.Model(retired).Updates(map[string]any{
		"preferred_role": "chef",
		"deactivated":    true,
	}).Error)

	seedCandidate(t, db, "waiter@example.com")

	chefs, err := svc.List(context.Background(), ListCandidatesInput{Role: "CHEF"})
	require.NoError(t, err)
	require.Len(t, chefs, 2)

	eligible, err := svc.List(context.Background(), ListCandidatesInput{Role: "chef", EligibleOnly: true})
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, chef.ID, eligible[0].ID)
}

func TestAssignmentsByCandidate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCandidateService(db)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	first := seedTeam(t, db, company.ID, "Spring crew", nil, nil)
	second := seedTeam(t, db, company.ID, "Summer crew", nil, nil)
	candidate := seedCandidate(t, db, "busy@example.com")

	older := seedSlot(t, db, first.ID, "chef")
	newer := seedSlot(t, db, second.ID, "waiter")
	seedSlot(t, db, second.ID, "waiter") // stays open

	require.NoError(t, db.Model(older).Updates(map[string]any{
		"filled_by_id": candidate.ID,
		"accepted_at":  date(2026, time.May, 1),
	}).Error)
	require.NoError(t, db.Model(newer).Updates(map[string]any{
		"filled_by_id": candidate.ID,
		"accepted_at":  date(2026, time.June, 1),
	}).Error)

	assignments, err := svc.AssignmentsByCandidate(context.Background(), candidate.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, "Summer crew", assignments[0].TeamName)
	require.Equal(t, "waiter", assignments[0].Role)
	require.Equal(t, "2026-06-01T00:00:00Z", assignments[0].AcceptedAt)
	require.Equal(t, "Spring crew", assignments[1].TeamName)

	none, err := svc.AssignmentsByCandidate(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}
