package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/database/testutil"
	"github.com/crewlink/crewlink/internal/models"
)

func TestCreateTeamRequestExpandsQuantityIntoSlotRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewTeamRequestService(db, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	salary := 2500.0

	team, err := svc.Create(context.Background(), CreateTeamRequestInput{
		CompanyID: company.ID,
		Name:      "Summer festival crew",
		Location:  "Lisbon",
		Roles: []RoleLineInput{
			{Role: "chef", Quantity: 3, Salary: &salary},
			{Role: "waiter", Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.TeamRequestOpen, team.State)
	require.Len(t, team.Slots, 5)

	chefs := 0
	for _, slot := range team.Slots {
		require.Nil(t, slot.FilledByID)
		require.Nil(t, slot.AcceptedAt)
		if slot.Role == "chef" {
			chefs++
			require.NotNil(t, slot.Salary)
			require.Equal(t, salary, *slot.Salary)
		}
	}
	require.Equal(t, 3, chefs)
}

func TestCreateTeamRequestValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewTeamRequestService(db, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	line := []RoleLineInput{{Role: "chef", Quantity: 1}}

	_, err = svc.Create(context.Background(), CreateTeamRequestInput{CompanyID: company.ID, Roles: line})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateTeamRequestInput{CompanyID: company.ID, Name: "Crew"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateTeamRequestInput{
		CompanyID: company.ID,
		Name:      "Crew",
		Roles:     []RoleLineInput{{Role: "chef", Quantity: 0}},
	})
	require.Error(t, err)

	starts := date(2026, time.June, 15)
	ends := date(2026, time.June, 1)
	_, err = svc.Create(context.Background(), CreateTeamRequestInput{
		CompanyID: company.ID,
		Name:      "Crew",
		StartsAt:  &starts,
		EndsAt:    &ends,
		Roles:     line,
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateTeamRequestInput{
		CompanyID: "missing-company",
		Name:      "Crew",
		Roles:     line,
	})
	require.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestUpdateStateCompleteRequiresAllSlotsFilled(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewTeamRequestService(db, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)
	slot := seedSlot(t, db, team.ID, "chef")

	_, err = svc.UpdateState(context.Background(), team.ID, models.TeamRequestComplete, "admin-1")
	require.ErrorIs(t, err, ErrOpenSlotsRemain)

	candidate := seedCandidate(t, db, "done@example.com")
	require.NoError(t, db.Model(&models.Slot{}).Where("id = ?", slot.ID).
		Update("filled_by_id", candidate.ID).Error)

	updated, err := svc.UpdateState(context.Background(), team.ID, models.TeamRequestComplete, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.TeamRequestComplete, updated.State)
}

func TestUpdateStateRejectsUnknownState(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewTeamRequestService(db, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)

	_, err = svc.UpdateState(context.Background(), team.ID, "ARCHIVED", "admin-1")
	require.Error(t, err)

	_, err = svc.UpdateState(context.Background(), "missing", models.TeamRequestIncomplete, "admin-1")
	require.ErrorIs(t, err, ErrTeamRequestNotFound)
}

func TestListTeamRequestsFilters(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewTeamRequestService(db, nil)
	require.NoError(t, err)

	acme := seedCompany(t, db, "acme")
	globex := seedCompany(t, db, "globex")
	seedTeam(t, db, acme.ID, "Acme crew", nil, nil)
	other := seedTeam(t, db, globex.ID, "Globex crew", nil, nil)
	require.NoError(t, db.Model(other).Update("state", models.TeamRequestIncomplete).Error)

	all, err := svc.List(context.Background(), ListTeamRequestsInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	acmeOnly, err := svc.List(context.Background(), ListTeamRequestsInput{CompanyID: acme.ID})
	require.NoError(t, err)
	require.Len(t, acmeOnly, 1)
	require.Equal(t, "Acme crew", acmeOnly[0].Name)

	incomplete, err := svc.List(context.Background(), ListTeamRequestsInput{State: "incomplete"})
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	require.Equal(t, "Globex crew", incomplete[0].Name)
}

func TestAssignResponsible(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewTeamRequestService(db, nil)
	require.NoError(t, err)

	company := seedCompany(t, db, "acme")
	team := seedTeam(t, db, company.ID, "Launch crew", nil, nil)

	updated, err := svc.AssignResponsible(context.Background(), team.ID, "admin-9", "admin-1")
	require.NoError(t, err)
	require.NotNil(t, updated.ResponsibleAdminID)
	require.Equal(t, "admin-9", *updated.ResponsibleAdminID)

	_, err = svc.AssignResponsible(context.Background(), team.ID, " ", "admin-1")
	require.Error(t, err)
}
