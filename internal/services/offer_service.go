package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
	apperrors "github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/metrics"
)

var (
	// ErrOfferNotFound indicates the requested offer does not exist.
	ErrOfferNotFound = apperrors.New("OFFER_NOT_FOUND", "Offer not found", http.StatusNotFound)
	// ErrOfferInactive signals the offer was already retired.
	ErrOfferInactive = apperrors.NewConflict("OFFER_INACTIVE", "Offer is no longer active")
	// ErrDuplicateOffer signals an active offer already exists for the pair.
	ErrDuplicateOffer = apperrors.NewConflict("DUPLICATE_OFFER", "An active offer already exists for this candidate and slot")
)

// CandidateOfferView joins an offer with its slot, team and company for display.
type CandidateOfferView struct {
	OfferID     string   `json:"offer_id"`
	Active      bool     `json:"active"`
	SlotID      string   `json:"slot_id"`
	Role        string   `json:"role"`
	Salary      *float64 `json:"salary,omitempty"`
	SlotFilled  bool     `json:"slot_filled"`
	AcceptedOwn bool     `json:"accepted_by_me"`
	TeamID      string   `json:"team_request_id"`
	TeamName    string   `json:"team_name"`
	Location    string   `json:"location,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
}

// RoleOfferCount aggregates active offers per role for one team.
type RoleOfferCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// OfferService persists invites. Offers are flipped inactive, never deleted,
// so a candidate's history stays complete.
type OfferService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier *NotificationService
}

// NewOfferService constructs an OfferService instance. The notifier is
// optional; without one revocations happen silently.
func NewOfferService(db *gorm.DB, audit *AuditService, notifier *NotificationService) (*OfferService, error) {
	if db == nil {
		return nil, errors.New("offer service: db is required")
	}
	return &OfferService{db: db, audit: audit, notifier: notifier}, nil
}

// Create records a new offer linking a candidate to a slot. It fails with
// ErrDuplicateOffer when an active offer for the pair already exists; the
// partial unique index catches the concurrent case.
func (s *OfferService) Create(ctx context.Context, slotID, candidateID string) (*models.Offer, error) {
	ctx = ensureContext(ctx)

	slotID = strings.TrimSpace(slotID)
	candidateID = strings.TrimSpace(candidateID)
	if slotID == "" || candidateID == "" {
		return nil, apperrors.NewBadRequest("slot id and candidate id are required")
	}

	var offer *models.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := createOfferRow(tx, slotID, candidateID)
		if err != nil {
			return err
		}
		offer = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OffersDispatched.Inc()
	return offer, nil
}

// ListActiveByCandidate returns all currently active offers across all teams
// for a candidate, joined for display.
func (s *OfferService) ListActiveByCandidate(ctx context.Context, candidateEmail string) ([]CandidateOfferView, error) {
	return s.listByCandidate(ctx, candidateEmail, true)
}

// ListAllByCandidate returns the candidate's full offer history including
// retired offers.
func (s *OfferService) ListAllByCandidate(ctx context.Context, candidateEmail string) ([]CandidateOfferView, error) {
	return s.listByCandidate(ctx, candidateEmail, false)
}

func (s *OfferService) listByCandidate(ctx context.Context, candidateEmail string, activeOnly bool) ([]CandidateOfferView, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(candidateEmail)
	if email == "" {
		return nil, apperrors.NewBadRequest("candidate email is required")
	}

	var candidate models.Candidate
	if err := s.db.WithContext(ctx).First(&candidate, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("offer service: load candidate: %w", err)
	}

	query := s.db.WithContext(ctx).
		Preload("Slot.TeamRequest.Company").
		Where("candidate_id = ?", candidate.ID).
		Order("created_at DESC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var offers []models.Offer
	if err := query.Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("offer service: list offers: %w", err)
	}

	views := make([]CandidateOfferView, 0, len(offers))
	for _, offer := range offers {
		views = append(views, mapOfferView(offer, candidate.ID))
	}
	return views, nil
}

// DeactivateCompeting retires every active offer on a slot except the one
// belonging to the accepted candidate. Exposed for administrative use; the
// acceptance transaction calls the tx-scoped helper directly.
func (s *OfferService) DeactivateCompeting(ctx context.Context, slotID, exceptCandidateID string) (int64, error) {
	ctx = ensureContext(ctx)

	var retired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := deactivateCompetingOffers(tx, slotID, exceptCandidateID)
		if err != nil {
			return err
		}
		retired = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return retired, nil
}

// Revoke flips a single offer inactive.
func (s *OfferService) Revoke(ctx context.Context, offerID, actorID string) error {
	ctx = ensureContext(ctx)

	var offer models.Offer
	err := s.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Slot.TeamRequest").
		First(&offer, "id = ?", strings.TrimSpace(offerID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOfferNotFound
	}
	if err != nil {
		return fmt.Errorf("offer service: load offer: %w", err)
	}
	if !offer.Active {
		return ErrOfferInactive
	}

	if err := s.db.WithContext(ctx).Model(&offer).Update("active", false).Error; err != nil {
		return fmt.Errorf("offer service: revoke offer: %w", err)
	}

	metrics.OffersRetired.WithLabelValues("revoked").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorID,
		Action:   "offer.revoke",
		Resource: offer.ID,
		Result:   "success",
		Metadata: map[string]any{"slot_id": offer.SlotID, "candidate_id": offer.CandidateID},
	})

	if offer.Slot != nil {
		role := offer.Slot.Role
		s.notifier.OfferRevoked(ctx, offer.Candidate, offer.Slot.TeamRequest, role)
	}
	return nil
}

// CountActiveByTeamGroupedByRole returns active offer counts per role for one team.
func (s *OfferService) CountActiveByTeamGroupedByRole(ctx context.Context, teamRequestID string) ([]RoleOfferCount, error) {
	ctx = ensureContext(ctx)

	var counts []RoleOfferCount
	err := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Select("LOWER(slots.role) AS role, COUNT(offers.id) AS count").
		Joins("JOIN slots ON slots.id = offers.slot_id").
		Where("slots.team_request_id = ? AND offers.active = ?", strings.TrimSpace(teamRequestID), true).
		Group("LOWER(slots.role)").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("offer service: count offers by role: %w", err)
	}
	return counts, nil
}

// CountActiveByTeamAndRole returns the number of active offers for one
// team/role scope.
func (s *OfferService) CountActiveByTeamAndRole(ctx context.Context, teamRequestID, role string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Joins("JOIN slots ON slots.id = offers.slot_id").
		Where("slots.team_request_id = ? AND LOWER(slots.role) = ? AND offers.active = ?",
			strings.TrimSpace(teamRequestID), normaliseRole(role), true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("offer service: count offers: %w", err)
	}
	return count, nil
}

// createOfferRow inserts an offer after checking for an existing active one.
// Unique index violations from concurrent inserts surface as ErrDuplicateOffer.
func createOfferRow(tx *gorm.DB, slotID, candidateID string) (*models.Offer, error) {
	var existing int64
	if err := tx.Model(&models.Offer{}).
		Where("slot_id = ? AND candidate_id = ? AND active = ?", slotID, candidateID, true).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("offer service: check existing offer: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateOffer
	}

	offer := &models.Offer{
		SlotID:      slotID,
		CandidateID: candidateID,
		Active:      true,
	}
	if err := tx.Create(offer).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateOffer
		}
		return nil, fmt.Errorf("offer service: create offer: %w", err)
	}
	return offer, nil
}

// deactivateCompetingOffers retires every active offer on the slot other than
// the accepted candidate's own, which stays as-is (it is moot once the slot
// is filled and still renders in history).
func deactivateCompetingOffers(tx *gorm.DB, slotID, exceptCandidateID string) (int64, error) {
	result := tx.Model(&models.Offer{}).
		Where("slot_id = ? AND candidate_id <> ? AND active = ?", slotID, exceptCandidateID, true).
		Update("active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("offer service: deactivate competing offers: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.OffersRetired.WithLabelValues("superseded").Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func mapOfferView(offer models.Offer, candidateID string) CandidateOfferView {
	view := CandidateOfferView{
		OfferID: offer.ID,
		Active:  offer.Active,
		SlotID:  offer.SlotID,
	}
	if slot := offer.Slot; slot != nil {
		view.Role = slot.Role
		view.Salary = slot.Salary
		view.SlotFilled = slot.Filled()
		view.AcceptedOwn = slot.FilledByID != nil && *slot.FilledByID == candidateID
		if team := slot.TeamRequest; team != nil {
			view.TeamID = team.ID
			view.TeamName = team.Name
			view.Location = team.Location
			if team.Company != nil {
				view.CompanyName = team.Company.Name
			}
		}
	}
	return view
}
