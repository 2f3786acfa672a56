package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/pkg/metrics"
)

// RoleSummary aggregates one role line within a team: demand, fill progress
// and outstanding invitations. Roles are grouped case-insensitively.
type RoleSummary struct {
	Role            string `json:"role"`
	TotalPositions  int64  `json:"total_positions"`
	FilledPositions int64  `json:"filled_positions"`
	OpenPositions   int64  `json:"open_positions"`
	ProposalsSent   int64  `json:"proposals_sent"`
}

// TeamSummary is the staffing progress rollup for one team request.
type TeamSummary struct {
	TeamRequestID   string                  `json:"team_request_id"`
	Name            string                  `json:"name"`
	State           models.TeamRequestState `json:"state"`
	TotalPositions  int64                   `json:"total_positions"`
	FilledPositions int64                   `json:"filled_positions"`
	OpenPositions   int64                   `json:"open_positions"`
	Roles           []RoleSummary           `json:"roles"`
}

// SummaryService computes staffing progress views over slots and offers.
type SummaryService struct {
	db *gorm.DB
}

// NewSummaryService constructs a SummaryService instance.
func NewSummaryService(db *gorm.DB) (*SummaryService, error) {
	if db == nil {
		return nil, errors.New("summary service: db is required")
	}
	return &SummaryService{db: db}, nil
}

// TeamSummary returns the per-role and overall fill progress for one team.
func (s *SummaryService) TeamSummary(ctx context.Context, teamRequestID string) (*TeamSummary, error) {
	ctx = ensureContext(ctx)

	var team models.TeamRequest
	err := s.db.WithContext(ctx).First(&team, "id = ?", strings.TrimSpace(teamRequestID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("summary service: load team request: %w", err)
	}

	roles, err := s.roleSummaries(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	summary := &TeamSummary{
		TeamRequestID: team.ID,
		Name:          team.Name,
		State:         team.State,
		Roles:         roles,
	}
	for _, role := range roles {
		summary.TotalPositions += role.TotalPositions
		summary.FilledPositions += role.FilledPositions
		summary.OpenPositions += role.OpenPositions
	}
	return summary, nil
}

// RoleSummaries returns just the per-role lines for one team.
func (s *SummaryService) RoleSummaries(ctx context.Context, teamRequestID string) ([]RoleSummary, error) {
	ctx = ensureContext(ctx)

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.TeamRequest{}).
		Where("id = ?", strings.TrimSpace(teamRequestID)).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("summary service: check team request: %w", err)
	}
	if exists == 0 {
		return nil, ErrTeamRequestNotFound
	}
	return s.roleSummaries(ctx, strings.TrimSpace(teamRequestID))
}

func (s *SummaryService) roleSummaries(ctx context.Context, teamRequestID string) ([]RoleSummary, error) {
	type slotLine struct {
		Role   string
		Total  int64
		Filled int64
	}
	var lines []slotLine
	err := s.db.WithContext(ctx).
		Model(&models.Slot{}).
		Select("LOWER(role) AS role, COUNT(id) AS total, COUNT(filled_by_id) AS filled").
		Where("team_request_id = ?", teamRequestID).
		Group("LOWER(role)").
		Order("LOWER(role) ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("summary service: aggregate slots: %w", err)
	}

	type offerLine struct {
		Role  string
		Count int64
	}
	var offers []offerLine
	err = s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Select("LOWER(slots.role) AS role, COUNT(offers.id) AS count").
		Joins("JOIN slots ON slots.id = offers.slot_id").
		Where("slots.team_request_id = ? AND offers.active = ?", teamRequestID, true).
		Group("LOWER(slots.role)").
		Scan(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("summary service: aggregate offers: %w", err)
	}
	proposals := make(map[string]int64, len(offers))
	for _, line := range offers {
		proposals[line.Role] = line.Count
	}

	summaries := make([]RoleSummary, 0, len(lines))
	for _, line := range lines {
		summaries = append(summaries, RoleSummary{
			Role:            line.Role,
			TotalPositions:  line.Total,
			FilledPositions: line.Filled,
			OpenPositions:   line.Total - line.Filled,
			ProposalsSent:   proposals[line.Role],
		})
	}
	return summaries, nil
}

// RefreshOpenSlotsGauge recounts unfilled slots across all teams and updates
// the gauge. Called periodically by the maintenance scheduler.
func (s *SummaryService) RefreshOpenSlotsGauge(ctx context.Context) error {
	ctx = ensureContext(ctx)

	var open int64
	if err := s.db.WithContext(ctx).Model(&models.Slot{}).
		Where("filled_by_id IS NULL").Count(&open).Error; err != nil {
		return fmt.Errorf("summary service: count open slots: %w", err)
	}
	metrics.OpenSlots.Set(float64(open))
	return nil
}
