package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
	apperrors "github.com/crewlink/crewlink/pkg/errors"
)

// ErrCandidateNotFound indicates no candidate matches the given identifier.
var ErrCandidateNotFound = apperrors.New("CANDIDATE_NOT_FOUND", "Candidate not found", http.StatusNotFound)

// ListCandidatesInput narrows the candidate directory listing.
type ListCandidatesInput struct {
	Role         string `form:"role" json:"role,omitempty"`
	EligibleOnly bool   `form:"eligible_only" json:"eligible_only,omitempty"`
}

// CandidateAssignment is one filled slot in a candidate's history.
type CandidateAssignment struct {
	SlotID        string                  `json:"slot_id"`
	Role          string                  `json:"role"`
	TeamRequestID string                  `json:"team_request_id"`
	TeamName      string                  `json:"team_name"`
	TeamState     models.TeamRequestState `json:"team_state"`
	AcceptedAt    string                  `json:"accepted_at"`
}

// CandidateService reads the mirrored candidate directory. Profile writes
// belong to the external profile subsystem; this service never mutates them.
type CandidateService struct {
	db *gorm.DB
}

// NewCandidateService constructs a CandidateService instance.
func NewCandidateService(db *gorm.DB) (*CandidateService, error) {
	if db == nil {
		return nil, errors.New("candidate service: db is required")
	}
	return &CandidateService{db: db}, nil
}

// GetByID loads one candidate.
func (s *CandidateService) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	ctx = ensureContext(ctx)

	var candidate models.Candidate
	err := s.db.WithContext(ctx).First(&candidate, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("candidate service: load candidate: %w", err)
	}
	return &candidate, nil
}

// FindByEmail loads one candidate by their unique email.
func (s *CandidateService) FindByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	var candidate models.Candidate
	err := s.db.WithContext(ctx).First(&candidate, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("candidate service: load candidate: %w", err)
	}
	return &candidate, nil
}

// List returns directory candidates, optionally narrowed by preferred role
// and search eligibility.
func (s *CandidateService) List(ctx context.Context, input ListCandidatesInput) ([]models.Candidate, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Order("last_name ASC, first_name ASC")
	if role := normaliseRole(input.Role); role != "" {
		query = query.Where("LOWER(preferred_role) = ?", role)
	}
	if input.EligibleOnly {
		query = query.Where("verified = ? AND deactivated = ?", true, false)
	}

	var candidates []models.Candidate
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("candidate service: list candidates: %w", err)
	}
	return candidates, nil
}

// AssignmentsByCandidate returns every slot the candidate has accepted,
// newest first.
func (s *CandidateService) AssignmentsByCandidate(ctx context.Context, candidateID string) ([]CandidateAssignment, error) {
	ctx = ensureContext(ctx)

	var slots []models.Slot
	err := s.db.WithContext(ctx).
		Preload("TeamRequest").
		Where("filled_by_id = ?", strings.TrimSpace(candidateID)).
		Order("accepted_at DESC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("candidate service: list assignments: %w", err)
	}

	assignments := make([]CandidateAssignment, 0, len(slots))
	for _, slot := range slots {
		assignment := CandidateAssignment{
			SlotID: slot.ID,
			Role:   slot.Role,
		}
		if slot.AcceptedAt != nil {
			assignment.AcceptedAt = slot.AcceptedAt.UTC().Format(time.RFC3339)
		}
		if team := slot.TeamRequest; team != nil {
			assignment.TeamRequestID = team.ID
			assignment.TeamName = team.Name
			assignment.TeamState = team.State
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}
