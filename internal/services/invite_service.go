package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
	apperrors "github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/logger"
	"github.com/crewlink/crewlink/pkg/metrics"
)

// ErrNoSlotsForRole indicates the team has no slot rows for the requested role.
var ErrNoSlotsForRole = apperrors.New("NO_SLOTS_FOR_ROLE", "Team has no slots for the requested role", http.StatusNotFound)

// SendInvitesInput carries one dispatch request: a set of candidates invited
// to one role within one team.
type SendInvitesInput struct {
	TeamRequestID string   `json:"team_request_id" validate:"required"`
	Role          string   `json:"role" validate:"required"`
	CandidateIDs  []string `json:"candidate_ids" validate:"required,min=1"`
}

// SendInvitesResult reports the outcome per dispatch. Skipped lists candidate
// ids that did not receive a new offer (duplicate active offer, unknown or
// ineligible candidate) alongside the reason.
type SendInvitesResult struct {
	Created int               `json:"created"`
	Skipped map[string]string `json:"skipped,omitempty"`
}

// InviteService dispatches offers for a role within a team. Dispatch is
// idempotent per (team, role, candidate): repeating a send, or listing the
// same candidate twice, creates at most one active offer.
type InviteService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier *NotificationService
}

// NewInviteService constructs an InviteService instance.
func NewInviteService(db *gorm.DB, audit *AuditService, notifier *NotificationService) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	return &InviteService{db: db, audit: audit, notifier: notifier}, nil
}

// SendInvites creates one offer per eligible candidate against slots of the
// requested role. Offers are spread round-robin over the open slots (oldest
// first) so a single acceptance only retires the rivals on that unit while
// the remaining units keep their own standing offers. When every unit is
// already filled the oldest slot row stands in, so a late acceptance still
// hits the usual slot-filled check rather than a missing row.
func (s *InviteService) SendInvites(ctx context.Context, input SendInvitesInput, actorID string) (*SendInvitesResult, error) {
	ctx = ensureContext(ctx)

	teamID := strings.TrimSpace(input.TeamRequestID)
	role := normaliseRole(input.Role)
	candidateIDs := normaliseIDs(input.CandidateIDs)
	if teamID == "" || role == "" {
		return nil, apperrors.NewBadRequest("team request id and role are required")
	}
	if len(candidateIDs) == 0 {
		return nil, apperrors.NewBadRequest("at least one candidate id is required")
	}

	var team models.TeamRequest
	if err := s.db.WithContext(ctx).First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamRequestNotFound
		}
		return nil, fmt.Errorf("invite service: load team request: %w", err)
	}

	targetSlots, err := s.resolveTargetSlots(ctx, teamID, role)
	if err != nil {
		return nil, err
	}

	result := &SendInvitesResult{Skipped: map[string]string{}}
	var notified []models.Candidate

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, candidateID := range candidateIDs {
			var candidate models.Candidate
			if err := tx.First(&candidate, "id = ?", candidateID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Skipped[candidateID] = "unknown candidate"
					continue
				}
				return fmt.Errorf("invite service: load candidate: %w", err)
			}
			if !candidate.Eligible() {
				result.Skipped[candidateID] = "candidate not eligible"
				continue
			}

			held, err := s.holdsActiveOffer(tx, teamID, role, candidate.ID)
			if err != nil {
				return err
			}
			if held {
				result.Skipped[candidateID] = "active offer already exists"
				continue
			}

			slot := targetSlots[result.Created%len(targetSlots)]
			if _, err := createOfferRow(tx, slot.ID, candidate.ID); err != nil {
				if errors.Is(err, ErrDuplicateOffer) {
					result.Skipped[candidateID] = "active offer already exists"
					continue
				}
				return err
			}
			result.Created++
			notified = append(notified, candidate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created > 0 {
		metrics.OffersDispatched.Add(float64(result.Created))
	}
	if len(result.Skipped) == 0 {
		result.Skipped = nil
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorID,
		Action:   "invite.dispatch",
		Resource: teamID,
		Result:   "success",
		Metadata: map[string]any{
			"role":    role,
			"slots":   len(targetSlots),
			"created": result.Created,
			"skipped": len(result.Skipped),
		},
	})

	for i := range notified {
		if s.notifier != nil {
			s.notifier.OfferSent(ctx, &notified[i], &team, targetSlots[0].Role)
		}
	}

	logger.Debug("invites dispatched",
		zap.String("team_request_id", teamID),
		zap.String("role", role),
		zap.Int("created", result.Created))
	return result, nil
}

// ListActiveInviteIDs returns the distinct candidate ids holding an active
// offer within the team, optionally narrowed to one role.
func (s *InviteService) ListActiveInviteIDs(ctx context.Context, teamRequestID, role string) ([]string, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Distinct("offers.candidate_id").
		Joins("JOIN slots ON slots.id = offers.slot_id").
		Where("slots.team_request_id = ? AND offers.active = ?", strings.TrimSpace(teamRequestID), true)
	if role = normaliseRole(role); role != "" {
		query = query.Where("LOWER(slots.role) = ?", role)
	}

	var ids []string
	if err := query.Pluck("offers.candidate_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("invite service: list invited candidates: %w", err)
	}
	return ids, nil
}

// ListAcceptedIDs returns the distinct candidate ids that have filled a slot
// within the team, optionally narrowed to one role.
func (s *InviteService) ListAcceptedIDs(ctx context.Context, teamRequestID, role string) ([]string, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Slot{}).
		Distinct("filled_by_id").
		Where("team_request_id = ? AND filled_by_id IS NOT NULL", strings.TrimSpace(teamRequestID))
	if role = normaliseRole(role); role != "" {
		query = query.Where("LOWER(role) = ?", role)
	}

	var ids []string
	if err := query.Pluck("filled_by_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("invite service: list accepted candidates: %w", err)
	}
	return ids, nil
}

// resolveTargetSlots picks the slots a dispatch spreads its offers over: all
// unfilled slots for the role (oldest first), else the oldest slot row for the
// role as a single stand-in.
func (s *InviteService) resolveTargetSlots(ctx context.Context, teamRequestID, role string) ([]models.Slot, error) {
	var slots []models.Slot
	err := s.db.WithContext(ctx).
		Where("team_request_id = ? AND LOWER(role) = ? AND filled_by_id IS NULL", teamRequestID, role).
		Order("created_at ASC, id ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("invite service: find open slots: %w", err)
	}
	if len(slots) > 0 {
		return slots, nil
	}

	var slot models.Slot
	err = s.db.WithContext(ctx).
		Where("team_request_id = ? AND LOWER(role) = ?", teamRequestID, role).
		Order("created_at ASC, id ASC").
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSlotsForRole
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: find slot for role: %w", err)
	}
	return []models.Slot{slot}, nil
}

// holdsActiveOffer reports whether the candidate already has an active offer
// on any slot of the team and role. Dispatch dedupes team-and-role-wide, not
// per slot, so re-sending never hands one candidate a second unit.
func (s *InviteService) holdsActiveOffer(tx *gorm.DB, teamRequestID, role, candidateID string) (bool, error) {
	var count int64
	err := tx.Model(&models.Offer{}).
		Joins("JOIN slots ON slots.id = offers.slot_id").
		Where("slots.team_request_id = ? AND LOWER(slots.role) = ? AND offers.candidate_id = ? AND offers.active = ?",
			teamRequestID, role, candidateID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("invite service: check existing offer: %w", err)
	}
	return count > 0, nil
}
