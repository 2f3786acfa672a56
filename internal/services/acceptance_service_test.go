package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/database/testutil"
	"github.com/crewlink/crewlink/internal/models"
)

func TestAcceptOfferFillsSlotAndRetiresCompetingOffers(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")

	winner := seedCandidate(t, db, "winner@example.com")
	rival := seedCandidate(t, db, "rival@example.com")
	seedOffer(t, db, slot.ID, winner.ID)
	rivalOffer := seedOffer(t, db, slot.ID, rival.ID)

	result, err := svc.AcceptOffer(context.Background(), slot.ID, winner.Email)
	require.NoError(t, err)
	require.Equal(t, slot.ID, result.SlotID)
	require.Equal(t, winner.ID, result.CandidateID)
	require.Equal(t, int64(1), result.OffersRetired)
	require.False(t, result.AcceptedAt.IsZero())

	var reloaded models.Slot
	require.NoError(t, db.First(&reloaded, "id = ?", slot.ID).Error)
	require.NotNil(t, reloaded.FilledByID)
	require.Equal(t, winner.ID, *reloaded.FilledByID)
	require.NotNil(t, reloaded.AcceptedAt)

	var competing models.Offer
	require.NoError(t, db.First(&competing, "id = ?", rivalOffer.ID).Error)
	require.False(t, competing.Active)

	// The winner's own offer stays active; it is moot once the slot is filled.
	var own models.Offer
	require.NoError(t, db.First(&own, "slot_id = ? AND candidate_id = ?", slot.ID, winner.ID).Error)
	require.True(t, own.Active)
}

func TestAcceptOfferUnknownCandidate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")

	_, err = svc.AcceptOffer(context.Background(), slot.ID, "ghost@example.com")
	require.ErrorIs(t, err, ErrCandidateUnknown)
}

func TestAcceptOfferMissingSlot(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	candidate := seedCandidate(t, db, "someone@example.com")

	_, err = svc.AcceptOffer(context.Background(), "no-such-slot", candidate.Email)
	require.ErrorIs(t, err, ErrSlotNotFound)
}

func TestAcceptOfferSlotAlreadyFilled(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")

	first := seedCandidate(t, db, "first@example.com")
	second := seedCandidate(t, db, "second@example.com")
	seedOffer(t, db, slot.ID, first.ID)
	seedOffer(t, db, slot.ID, second.ID)

	_, err = svc.AcceptOffer(context.Background(), slot.ID, first.Email)
	require.NoError(t, err)

	_, err = svc.AcceptOffer(context.Background(), slot.ID, second.Email)
	require.ErrorIs(t, err, ErrSlotAlreadyFilled)
}

func TestAcceptOfferConcurrentAttemptsFillExactlyOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	// Funnel everything through one connection so the shared-cache sqlite
	// database never returns busy errors under write contention.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")

	const rivals = 5
	emails := make([]string, rivals)
	for i := 0; i < rivals; i++ {
		candidate := seedCandidate(t, db, fmt.Sprintf("rival%d@example.com", i))
		seedOffer(t, db, slot.ID, candidate.ID)
		emails[i] = candidate.Email
	}

	results := make([]error, rivals)
	var wg sync.WaitGroup
	for i := 0; i < rivals; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.AcceptOffer(context.Background(), slot.ID, emails[i])
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range results {
		if err == nil {
			accepted++
			continue
		}
		require.ErrorIs(t, err, ErrSlotAlreadyFilled)
	}
	require.Equal(t, 1, accepted)

	var reloaded models.Slot
	require.NoError(t, db.First(&reloaded, "id = ?", slot.ID).Error)
	require.NotNil(t, reloaded.FilledByID)

	// Every rival's offer is retired; only the winner's stays active.
	var active int64
	require.NoError(t, db.Model(&models.Offer{}).
		Where("slot_id = ? AND active = ?", slot.ID, true).Count(&active).Error)
	require.Equal(t, int64(1), active)

	var winnerOffer models.Offer
	require.NoError(t, db.First(&winnerOffer, "slot_id = ? AND active = ?", slot.ID, true).Error)
	require.Equal(t, *reloaded.FilledByID, winnerOffer.CandidateID)
}

func TestAcceptOfferRejectsSecondSlotInSameTeam(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	chefSlot := seedSlot(t, db, team.ID, "chef")
	waiterSlot := seedSlot(t, db, team.ID, "waiter")

	candidate := seedCandidate(t, db, "busy@example.com")
	seedOffer(t, db, chefSlot.ID, candidate.ID)
	seedOffer(t, db, waiterSlot.ID, candidate.ID)

	_, err = svc.AcceptOffer(context.Background(), chefSlot.ID, candidate.Email)
	require.NoError(t, err)

	_, err = svc.AcceptOffer(context.Background(), waiterSlot.ID, candidate.Email)
	require.ErrorIs(t, err, ErrAlreadyAssignedInTeam)
}

func TestAcceptOfferScheduleOverlap(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	candidate := seedCandidate(t, db, "scheduled@example.com")

	cases := []struct {
		name      string
		starts    time.Time
		ends      time.Time
		wantError bool
	}{
		{"overlapping window", date(2026, time.June, 10), date(2026, time.June, 20), true},
		{"identical window", date(2026, time.June, 1), date(2026, time.June, 15), true},
		{"touching boundary", date(2026, time.June, 15), date(2026, time.June, 30), true},
		{"disjoint later window", date(2026, time.July, 1), date(2026, time.July, 15), false},
	}

	// Existing engagement: 2026-06-01 .. 2026-06-15.
	firstTeam := seedTeam(t, db, company.ID, "First engagement",
		timePtr(date(2026, time.June, 1)), timePtr(date(2026, time.June, 15)))
	firstSlot := seedSlot(t, db, firstTeam.ID, "chef")
	seedOffer(t, db, firstSlot.ID, candidate.ID)
	_, err = svc.AcceptOffer(context.Background(), firstSlot.ID, candidate.Email)
	require.NoError(t, err)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			team := seedTeam(t, db, company.ID, "Team "+tc.name, timePtr(tc.starts), timePtr(tc.ends))
			slot := seedSlot(t, db, team.ID, "chef")
			seedOffer(t, db, slot.ID, candidate.ID)

			_, err := svc.AcceptOffer(context.Background(), slot.ID, candidate.Email)
			if tc.wantError {
				require.ErrorIs(t, err, ErrScheduleConflict)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAcceptOfferUnscheduledTeamsNeverOverlap(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	candidate := seedCandidate(t, db, "flexible@example.com")

	// First engagement has no schedule at all.
	firstTeam := seedTeam(t, db, company.ID, "Unscheduled", nil, nil)
	firstSlot := seedSlot(t, db, firstTeam.ID, "chef")
	seedOffer(t, db, firstSlot.ID, candidate.ID)
	_, err = svc.AcceptOffer(context.Background(), firstSlot.ID, candidate.Email)
	require.NoError(t, err)

	// A scheduled team elsewhere does not conflict with an unscheduled one.
	secondTeam := seedTeam(t, db, company.ID, "Scheduled",
		timePtr(date(2026, time.June, 1)), timePtr(date(2026, time.June, 15)))
	secondSlot := seedSlot(t, db, secondTeam.ID, "chef")
	seedOffer(t, db, secondSlot.ID, candidate.ID)
	_, err = svc.AcceptOffer(context.Background(), secondSlot.ID, candidate.Email)
	require.NoError(t, err)
}

func TestAcceptOfferRequiresActiveInvite(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAcceptanceService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")
	candidate := seedCandidate(t, db, "uninvited@example.com")

	_, err = svc.AcceptOffer(context.Background(), slot.ID, candidate.Email)
	require.ErrorIs(t, err, ErrNoActiveInvite)

	// A revoked offer does not count either.
	offer := seedOffer(t, db, slot.ID, candidate.ID)
	require.NoError(t, db.Model(offer).Update("active", false).Error)

	_, err = svc.AcceptOffer(context.Background(), slot.ID, candidate.Email)
	require.ErrorIs(t, err, ErrNoActiveInvite)

	var reloaded models.Slot
	require.NoError(t, db.First(&reloaded, "id = ?", slot.ID).Error)
	require.Nil(t, reloaded.FilledByID)
}
