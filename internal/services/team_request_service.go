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

var (
	// ErrTeamRequestNotFound indicates the requested team request does not exist.
	ErrTeamRequestNotFound = apperrors.New("TEAM_REQUEST_NOT_FOUND", "Team request not found", http.StatusNotFound)
	// ErrCompanyNotFound indicates the owning company does not exist.
	ErrCompanyNotFound = apperrors.New("COMPANY_NOT_FOUND", "Company not found", http.StatusNotFound)
	// ErrOpenSlotsRemain blocks completing a request that still has unfilled slots.
	ErrOpenSlotsRemain = apperrors.NewConflict("OPEN_SLOTS_REMAIN", "Team request still has open positions")
)

// RoleLineInput describes one role demand line of a new team request.
type RoleLineInput struct {
	Role     string
	Quantity int
	Salary   *float64
}

// CreateTeamRequestInput captures new team request metadata.
type CreateTeamRequestInput struct {
	CompanyID   string
	Name        string
	Description string
	Location    string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Roles       []RoleLineInput
}

// TeamRequestService handles the team request lifecycle. Slot rows are
// created here and only ever written afterwards by the acceptance transaction.
type TeamRequestService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewTeamRequestService constructs a TeamRequestService instance.
func NewTeamRequestService(db *gorm.DB, audit *AuditService) (*TeamRequestService, error) {
	if db == nil {
		return nil, errors.New("team request service: db is required")
	}
	return &TeamRequestService{db: db, audit: audit}, nil
}

// Create registers a new team request together with its role slots.
func (s *TeamRequestService) Create(ctx context.Context, input CreateTeamRequestInput) (*models.TeamRequest, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("team name is required")
	}
	if strings.TrimSpace(input.CompanyID) == "" {
		return nil, apperrors.NewBadRequest("company id is required")
	}
	if len(input.Roles) == 0 {
		return nil, apperrors.NewBadRequest("at least one role line is required")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, apperrors.NewBadRequest("engagement end must not precede its start")
	}
	for _, line := range input.Roles {
		if strings.TrimSpace(line.Role) == "" {
			return nil, apperrors.NewBadRequest("role name is required on every line")
		}
		if line.Quantity < 1 || line.Quantity > 200 {
			return nil, apperrors.NewBadRequest("role quantity must be between 1 and 200")
		}
	}

	request := &models.TeamRequest{
		CompanyID:   strings.TrimSpace(input.CompanyID),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		State:       models.TeamRequestOpen,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, "id = ?", request.CompanyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return fmt.Errorf("team request service: load company: %w", err)
		}

		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("team request service: create request: %w", err)
		}

		for _, line := range input.Roles {
			if err := createSlotRows(tx, request.ID, line.Role, line.Quantity, line.Salary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  request.CompanyID,
		Action:   "team_request.create",
		Resource: request.ID,
		Result:   "success",
		Metadata: map[string]any{"name": request.Name, "roles": len(input.Roles)},
	})

	return s.GetByID(ctx, request.ID)
}

// GetByID loads a team request with its slots and owning company.
func (s *TeamRequestService) GetByID(ctx context.Context, id string) (*models.TeamRequest, error) {
	ctx = ensureContext(ctx)

	var request models.TeamRequest
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team request service: get request: %w", err)
	}

	return &request, nil
}

// ListTeamRequestsInput filters the team request listing.
type ListTeamRequestsInput struct {
	CompanyID string
	State     string
}

// List returns team requests matching the supplied filters, newest first.
func (s *TeamRequestService) List(ctx context.Context, input ListTeamRequestsInput) ([]models.TeamRequest, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Preload("Company").
		Order("created_at DESC")

	if companyID := strings.TrimSpace(input.CompanyID); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if state := strings.ToUpper(strings.TrimSpace(input.State)); state != "" {
		query = query.Where("state = ?", state)
	}

	var requests []models.TeamRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("team request service: list requests: %w", err)
	}

	return requests, nil
}

// UpdateState moves the request through its lifecycle. Completing a request
// requires every slot to be filled.
func (s *TeamRequestService) UpdateState(ctx context.Context, id string, state models.TeamRequestState, actorID string) (*models.TeamRequest, error) {
	ctx = ensureContext(ctx)

	switch state {
	case models.TeamRequestOpen, models.TeamRequestIncomplete, models.TeamRequestComplete:
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown team request state %q", state))
	}

	var request models.TeamRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamRequestNotFound
			}
			return fmt.Errorf("team request service: load request: %w", err)
		}

		if state == models.TeamRequestComplete {
			var open int64
			if err := tx.Model(&models.Slot{}).
				Where("team_request_id = ? AND filled_by_id IS NULL", id).
				Count(&open).Error; err != nil {
				return fmt.Errorf("team request service: count open slots: %w", err)
			}
			if open > 0 {
				return ErrOpenSlotsRemain
			}
		}

		if err := tx.Model(&request).Update("state", state).Error; err != nil {
			return fmt.Errorf("team request service: update state: %w", err)
		}
		request.State = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorID,
		Action:   "team_request.update_state",
		Resource: id,
		Result:   "success",
		Metadata: map[string]any{"state": string(state)},
	})

	return &request, nil
}

// AssignResponsible records the administrator handling staffing for a request.
func (s *TeamRequestService) AssignResponsible(ctx context.Context, id, adminID, actorID string) (*models.TeamRequest, error) {
	ctx = ensureContext(ctx)

	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, apperrors.NewBadRequest("admin id is required")
	}

	var request models.TeamRequest
	err := s.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team request service: load request: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&request).
		Update("responsible_admin_id", adminID).Error; err != nil {
		return nil, fmt.Errorf("team request service: assign responsible: %w", err)
	}
	request.ResponsibleAdminID = &adminID

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:  actorID,
		Action:   "team_request.assign_responsible",
		Resource: id,
		Result:   "success",
		Metadata: map[string]any{"admin_id": adminID},
	})

	return &request, nil
}
