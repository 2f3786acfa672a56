package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
	apperrors "github.com/crewlink/crewlink/pkg/errors"
)

// CandidateStatus is a candidate's standing relative to one team.
type CandidateStatus string

const (
	// StatusInvited marks a candidate holding at least one active offer in
	// the team and no filled slot there.
	StatusInvited CandidateStatus = "INVITED"
	// StatusAccepted marks a candidate filling a slot in the team. Accepted
	// always wins over invited.
	StatusAccepted CandidateStatus = "ACCEPTED"
	// StatusNoProposal marks a candidate with no relation to the team.
	StatusNoProposal CandidateStatus = "NO_PROPOSAL"
)

// SearchCandidatesInput scopes a candidate search to one team and narrows it
// by profile attributes and per-team status. Role, skills and areas match
// case-insensitively; skills and areas require every listed value.
type SearchCandidatesInput struct {
	TeamRequestID string   `json:"team_request_id" validate:"required"`
	Role          string   `json:"role,omitempty"`
	Skills        []string `json:"skills,omitempty"`
	Areas         []string `json:"areas,omitempty"`
	Status        string   `json:"status,omitempty" validate:"omitempty,oneof=INVITED ACCEPTED NO_PROPOSAL"`
}

// CandidateSearchRow is one search result: the candidate plus their resolved
// status for the scoped team.
type CandidateSearchRow struct {
	Candidate models.Candidate `json:"candidate"`
	Status    CandidateStatus  `json:"status"`
}

// SearchService resolves candidate standing per team and answers scoped
// directory searches used when staffing a role.
type SearchService struct {
	db      *gorm.DB
	invites *InviteService
}

// NewSearchService constructs a SearchService instance.
func NewSearchService(db *gorm.DB, invites *InviteService) (*SearchService, error) {
	if db == nil {
		return nil, errors.New("search service: db is required")
	}
	if invites == nil {
		return nil, errors.New("search service: invite service is required")
	}
	return &SearchService{db: db, invites: invites}, nil
}

// SearchCandidates lists eligible candidates matching the profile filters,
// each tagged with their status for the scoped team. The optional status
// filter keeps only matching rows.
func (s *SearchService) SearchCandidates(ctx context.Context, input SearchCandidatesInput) ([]CandidateSearchRow, error) {
	ctx = ensureContext(ctx)

	teamID := strings.TrimSpace(input.TeamRequestID)
	if teamID == "" {
		return nil, apperrors.NewBadRequest("team request id is required")
	}
	if input.Status != "" {
		switch CandidateStatus(input.Status) {
		case StatusInvited, StatusAccepted, StatusNoProposal:
		default:
			return nil, apperrors.NewBadRequest("invalid status filter")
		}
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.TeamRequest{}).
		Where("id = ?", teamID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("search service: check team request: %w", err)
	}
	if exists == 0 {
		return nil, ErrTeamRequestNotFound
	}

	query := s.db.WithContext(ctx).
		Where("verified = ? AND deactivated = ?", true, false).
		Order("last_name ASC, first_name ASC")
	if role := normaliseRole(input.Role); role != "" {
		query = query.Where("LOWER(preferred_role) = ?", role)
	}

	var candidates []models.Candidate
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("search service: list candidates: %w", err)
	}

	accepted, invited, err := s.statusSets(ctx, teamID, input.Role)
	if err != nil {
		return nil, err
	}

	filters := composeProfileFilters(input.Skills, input.Areas)
	rows := make([]CandidateSearchRow, 0, len(candidates))
	for _, candidate := range candidates {
		if !matchesAll(&candidate, filters) {
			continue
		}
		status := resolveStatus(candidate.ID, accepted, invited)
		if input.Status != "" && string(status) != input.Status {
			continue
		}
		rows = append(rows, CandidateSearchRow{Candidate: candidate, Status: status})
	}
	return rows, nil
}

// StatusForCandidate resolves a single candidate's standing against a team.
func (s *SearchService) StatusForCandidate(ctx context.Context, teamRequestID, candidateID string) (CandidateStatus, error) {
	ctx = ensureContext(ctx)

	accepted, invited, err := s.statusSets(ctx, strings.TrimSpace(teamRequestID), "")
	if err != nil {
		return "", err
	}
	return resolveStatus(strings.TrimSpace(candidateID), accepted, invited), nil
}

// statusSets collects the accepted and invited candidate sets for a team.
// When role is non-empty both sets are narrowed to slots of that role, so a
// role-filtered search never reports an offer held for a different trade.
func (s *SearchService) statusSets(ctx context.Context, teamRequestID, role string) (accepted, invited map[string]struct{}, err error) {
	role = normaliseRole(role)
	acceptedIDs, err := s.invites.ListAcceptedIDs(ctx, teamRequestID, role)
	if err != nil {
		return nil, nil, err
	}
	invitedIDs, err := s.invites.ListActiveInviteIDs(ctx, teamRequestID, role)
	if err != nil {
		return nil, nil, err
	}

	accepted = make(map[string]struct{}, len(acceptedIDs))
	for _, id := range acceptedIDs {
		accepted[id] = struct{}{}
	}
	invited = make(map[string]struct{}, len(invitedIDs))
	for _, id := range invitedIDs {
		invited[id] = struct{}{}
	}
	return accepted, invited, nil
}

// resolveStatus applies the precedence rule: a filled slot outranks any
// standing offer.
func resolveStatus(candidateID string, accepted, invited map[string]struct{}) CandidateStatus {
	if _, ok := accepted[candidateID]; ok {
		return StatusAccepted
	}
	if _, ok := invited[candidateID]; ok {
		return StatusInvited
	}
	return StatusNoProposal
}

// candidateFilter is one predicate over a candidate profile. Composing
// filters as a slice keeps each narrowing concern independent.
type candidateFilter func(*models.Candidate) bool

func composeProfileFilters(skills, areas []string) []candidateFilter {
	var filters []candidateFilter
	if len(skills) > 0 {
		filters = append(filters, hasAllValues(skills, func(c *models.Candidate) []string {
			return decodeStringList(c.Skills)
		}))
	}
	if len(areas) > 0 {
		filters = append(filters, hasAllValues(areas, func(c *models.Candidate) []string {
			return decodeStringList(c.Areas)
		}))
	}
	return filters
}

func matchesAll(candidate *models.Candidate, filters []candidateFilter) bool {
	for _, filter := range filters {
		if !filter(candidate) {
			return false
		}
	}
	return true
}

// hasAllValues builds a filter requiring every wanted value to appear in the
// extracted list, compared case-insensitively.
func hasAllValues(wanted []string, extract func(*models.Candidate) []string) candidateFilter {
	normalised := make([]string, 0, len(wanted))
	for _, value := range wanted {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			normalised = append(normalised, value)
		}
	}
	return func(candidate *models.Candidate) bool {
		have := map[string]struct{}{}
		for _, value := range extract(candidate) {
			have[strings.ToLower(strings.TrimSpace(value))] = struct{}{}
		}
		for _, want := range normalised {
			if _, ok := have[want]; !ok {
				return false
			}
		}
		return true
	}
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}
