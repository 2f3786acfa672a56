package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
)

func seedCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, ContactEmail: "hiring@" + name + ".test"}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedTeam(t *testing.T, db *gorm.DB, companyID, name string, startsAt, endsAt *time.Time) *models.TeamRequest {
	t.Helper()
	team := &models.TeamRequest{
		CompanyID: companyID,
		Name:      name,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		State:     models.TeamRequestOpen,
	}
	require.NoError(t, db.Create(team).Error)
	return team
}

func seedSlot(t *testing.T, db *gorm.DB, teamID, role string) *models.Slot {
	t.Helper()
	slot := &models.Slot{TeamRequestID: teamID, Role: role}
	require.NoError(t, db.Create(slot).Error)
	return slot
}

func seedCandidate(t *testing.T, db *gorm.DB, email string) *models.Candidate {
	t.Helper()
	candidate := &models.Candidate{
		Email:     email,
		FirstName: "Test",
		LastName:  "Candidate",
		Verified:  true,
	}
	require.NoError(t, db.Create(candidate).Error)
	return candidate
}

func seedOffer(t *testing.T, db *gorm.DB, slotID, candidateID string) *models.Offer {
	t.Helper()
	offer := &models.Offer{SlotID: slotID, CandidateID: candidateID, Active: true}
	require.NoError(t, db.Create(offer).Error)
	return offer
}

func timePtr(value time.Time) *time.Time { return &value }

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
