package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/database/testutil"
	"github.com/crewlink/crewlink/internal/models"
)

func TestOfferCreateRejectsDuplicateActive(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOfferService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")
	alice := seedCandidate(t, db, "alice@example.com")

	offer, err := svc.Create(context.Background(), slot.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, offer.Active)

	_, err = svc.Create(context.Background(), slot.ID, alice.ID)
	require.ErrorIs(t, err, ErrDuplicateOffer)
}

func TestOfferCreateAllowsNewOfferAfterRetirement(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOfferService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")
	alice := seedCandidate(t, db, "alice@example.com")

	offer, err := svc.Create(context.Background(), slot.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), offer.ID, "admin-1"))

	// Retired offers do not block re-inviting the same candidate.
	_, err = svc.Create(context.Background(), slot.ID, alice.ID)
	require.NoError(t, err)
}

func TestOfferRevoke(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOfferService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")
	alice := seedCandidate(t, db, "alice@example.com")
	offer := seedOffer(t, db, slot.ID, alice.ID)

	require.NoError(t, svc.Revoke(context.Background(), offer.ID, "admin-1"))

	var reloaded models.Offer
	require.NoError(t, db.First(&reloaded, "id = ?", offer.ID).Error)
	require.False(t, reloaded.Active)

	require.ErrorIs(t, svc.Revoke(context.Background(), offer.ID, "admin-1"), ErrOfferInactive)
	require.ErrorIs(t, svc.Revoke(context.Background(), "missing", "admin-1"), ErrOfferNotFound)
}

func TestDeactivateCompetingSparesAcceptedCandidate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOfferService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")

	winner := seedCandidate(t, db, "winner@example.com")
	first := seedCandidate(t, db, "first@example.com")
	second := seedCandidate(t, db, "second@example.com")
	seedOffer(t, db, slot.ID, winner.ID)
	seedOffer(t, db, slot.ID, first.ID)
	seedOffer(t, db, slot.ID, second.ID)

	retired, err := svc.DeactivateCompeting(context.Background(), slot.ID, winner.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), retired)

	var active []models.Offer
	require.NoError(t, db.Where("slot_id = ? AND active = ?", slot.ID, true).Find(&active).Error)
	require.Len(t, active, 1)
	require.Equal(t, winner.ID, active[0].CandidateID)
}

func TestListOffersByCandidate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOfferService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	chefSlot := seedSlot(t, db, team.ID, "chef")
	waiterSlot := seedSlot(t, db, team.ID, "waiter")
	alice := seedCandidate(t, db, "alice@example.com")

	seedOffer(t, db, chefSlot.ID, alice.ID)
	retired := seedOffer(t, db, waiterSlot.ID, alice.ID)
	require.NoError(t, db.Model(retired).Update("active", false).Error)

	active, err := svc.ListActiveByCandidate(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "chef", active[0].Role)
	require.Equal(t, team.Name, active[0].TeamName)
	require.Equal(t, company.Name, active[0].CompanyName)

	all, err := svc.ListAllByCandidate(context.Background(), alice.Email)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.ListActiveByCandidate(context.Background(), "stranger@example.com")
	require.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestCountActiveByTeam(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOfferService(db, nil, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	chefSlot := seedSlot(t, db, team.ID, "Chef")
	waiterSlot := seedSlot(t, db, team.ID, "waiter")

	alice := seedCandidate(t, db, "alice@example.com")
	bob := seedCandidate(t, db, "bob@example.com")
	seedOffer(t, db, chefSlot.ID, alice.ID)
	seedOffer(t, db, chefSlot.ID, bob.ID)
	seedOffer(t, db, waiterSlot.ID, bob.ID)

	counts, err := svc.CountActiveByTeamGroupedByRole(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	byRole := map[string]int64{}
	for _, line := range counts {
		byRole[line.Role] = line.Count
	}
	require.Equal(t, int64(2), byRole["chef"])
	require.Equal(t, int64(1), byRole["waiter"])

	chefCount, err := svc.CountActiveByTeamAndRole(context.Background(), team.ID, "CHEF")
	require.NoError(t, err)
	require.Equal(t, int64(2), chefCount)
}
