package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewlink/crewlink/internal/models"
	apperrors "github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/logger"
	"github.com/crewlink/crewlink/pkg/metrics"
)

var (
	// ErrCandidateUnknown rejects acceptance attempts from principals without
	// a candidate profile.
	ErrCandidateUnknown = apperrors.New("CANDIDATE_UNKNOWN", "No candidate profile for this account", http.StatusUnauthorized)
	// ErrAlreadyAssignedInTeam signals the candidate already fills a slot in
	// the same team.
	ErrAlreadyAssignedInTeam = apperrors.NewConflict("TEAM_ASSIGNMENT_EXISTS", "Candidate already holds a position in this team")
	// ErrScheduleConflict signals an overlapping engagement in another team.
	ErrScheduleConflict = apperrors.NewConflict("SCHEDULE_CONFLICT", "Candidate has an overlapping engagement in another team")
	// ErrNoActiveInvite rejects acceptances without a standing active offer.
	ErrNoActiveInvite = apperrors.New("NO_ACTIVE_INVITE", "No active invitation for this slot", http.StatusForbidden)
)

// AcceptResult describes a successful acceptance.
type AcceptResult struct {
	SlotID        string    `json:"slot_id"`
	TeamRequestID string    `json:"team_request_id"`
	Role          string    `json:"role"`
	CandidateID   string    `json:"candidate_id"`
	AcceptedAt    time.Time `json:"accepted_at"`
	OffersRetired int64     `json:"offers_retired"`
}

// AcceptanceService runs the acceptance transaction: all validation and all
// writes happen inside one database transaction, so a slot is filled exactly
// once and competing offers retire atomically with the fill.
type AcceptanceService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier *NotificationService
}

// NewAcceptanceService constructs an AcceptanceService instance.
func NewAcceptanceService(db *gorm.DB, audit *AuditService, notifier *NotificationService) (*AcceptanceService, error) {
	if db == nil {
		return nil, errors.New("acceptance service: db is required")
	}
	return &AcceptanceService{db: db, audit: audit, notifier: notifier}, nil
}

// AcceptOffer attempts to fill a slot on behalf of the candidate identified
// by email. Checks run in a fixed order so callers see the most fundamental
// failure first: unknown candidate, missing slot, slot already filled,
// duplicate assignment in the same team, overlapping engagement elsewhere,
// and finally missing active invite. The candidate and slot rows are locked
// for the duration; the locked candidate row serialises a candidate's
// concurrent acceptances across slots.
func (s *AcceptanceService) AcceptOffer(ctx context.Context, slotID, candidateEmail string) (*AcceptResult, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()

	var (
		result    AcceptResult
		candidate models.Candidate
		team      models.TeamRequest
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&candidate, "email = ?", normaliseEmail(candidateEmail)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCandidateUnknown
			}
			return fmt.Errorf("acceptance: load candidate: %w", err)
		}

		var slot models.Slot
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&slot, "id = ?", slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("acceptance: load slot: %w", err)
		}
		if slot.Filled() {
			return ErrSlotAlreadyFilled
		}

		if err := tx.First(&team, "id = ?", slot.TeamRequestID).Error; err != nil {
			return fmt.Errorf("acceptance: load team request: %w", err)
		}

		var inTeam int64
		if err := tx.Model(&models.Slot{}).
			Where("team_request_id = ? AND filled_by_id = ?", team.ID, candidate.ID).
			Count(&inTeam).Error; err != nil {
			return fmt.Errorf("acceptance: check team assignment: %w", err)
		}
		if inTeam > 0 {
			return ErrAlreadyAssignedInTeam
		}

		if team.HasSchedule() {
			var overlapping int64
			err := tx.Model(&models.Slot{}).
				Joins("JOIN team_requests ON team_requests.id = slots.team_request_id").
				Where("slots.filled_by_id = ? AND slots.team_request_id <> ?", candidate.ID, team.ID).
				Where("team_requests.starts_at IS NOT NULL AND team_requests.ends_at IS NOT NULL").
				Where("team_requests.starts_at <= ? AND team_requests.ends_at >= ?", *team.EndsAt, *team.StartsAt).
				Count(&overlapping).Error
			if err != nil {
				return fmt.Errorf("acceptance: check schedule overlap: %w", err)
			}
			if overlapping > 0 {
				return ErrScheduleConflict
			}
		}

		var activeOffers int64
		if err := tx.Model(&models.Offer{}).
			Where("slot_id = ? AND candidate_id = ? AND active = ?", slot.ID, candidate.ID, true).
			Count(&activeOffers).Error; err != nil {
			return fmt.Errorf("acceptance: check active offer: %w", err)
		}
		if activeOffers == 0 {
			return ErrNoActiveInvite
		}

		if err := fillSlot(tx, slot.ID, candidate.ID, now); err != nil {
			return err
		}
		retired, err := deactivateCompetingOffers(tx, slot.ID, candidate.ID)
		if err != nil {
			return err
		}

		result = AcceptResult{
			SlotID:        slot.ID,
			TeamRequestID: team.ID,
			Role:          slot.Role,
			CandidateID:   candidate.ID,
			AcceptedAt:    now,
			OffersRetired: retired,
		}
		return nil
	})
	if err != nil {
		metrics.AcceptAttempts.WithLabelValues(acceptOutcome(err)).Inc()
		return nil, err
	}

	metrics.AcceptAttempts.WithLabelValues("accepted").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  candidate.ID,
		Action:   "slot.accept",
		Resource: result.SlotID,
		Result:   "success",
		Metadata: map[string]any{
			"team_request_id": result.TeamRequestID,
			"role":            result.Role,
			"offers_retired":  result.OffersRetired,
		},
	})
	if s.notifier != nil {
		s.notifier.SlotAccepted(ctx, &candidate, &team, result.SlotID, result.Role)
	}
	logger.Debug("slot accepted")
	return &result, nil
}

// acceptOutcome maps an acceptance failure to its metric label.
func acceptOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotAlreadyFilled):
		return "slot_filled"
	case errors.Is(err, ErrAlreadyAssignedInTeam):
		return "team_conflict"
	case errors.Is(err, ErrScheduleConflict):
		return "schedule_conflict"
	case errors.Is(err, ErrNoActiveInvite):
		return "no_invite"
	default:
		return "error"
	}
}
