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
	// ErrSlotNotFound indicates the requested slot does not exist.
	ErrSlotNotFound = apperrors.New("SLOT_NOT_FOUND", "Slot not found", http.StatusNotFound)
	// ErrSlotAlreadyFilled signals the slot was accepted by another candidate.
	ErrSlotAlreadyFilled = apperrors.NewConflict("SLOT_ALREADY_FILLED", "Slot already filled")
)

// SlotService exposes read access to role slots. Slot rows are created by the
// team request service and filled exclusively by the acceptance transaction;
// no API caller writes slots directly.
type SlotService struct {
	db *gorm.DB
}

// NewSlotService constructs a SlotService instance.
func NewSlotService(db *gorm.DB) (*SlotService, error) {
	if db == nil {
		return nil, errors.New("slot service: db is required")
	}
	return &SlotService{db: db}, nil
}

// GetByID loads a single slot with its team request.
func (s *SlotService) GetByID(ctx context.Context, id string) (*models.Slot, error) {
	ctx = ensureContext(ctx)

	var slot models.Slot
	err := s.db.WithContext(ctx).
		Preload("TeamRequest").
		Preload("FilledBy").
		First(&slot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("slot service: get slot: %w", err)
	}
	return &slot, nil
}

// FindOpenSlots returns the unfilled slots of a team, optionally narrowed to
// one role, oldest first.
func (s *SlotService) FindOpenSlots(ctx context.Context, teamRequestID, role string) ([]models.Slot, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(teamRequestID) == "" {
		return nil, apperrors.NewBadRequest("team request id is required")
	}

	query := s.db.WithContext(ctx).
		Where("team_request_id = ? AND filled_by_id IS NULL", strings.TrimSpace(teamRequestID)).
		Order("created_at ASC, id ASC")

	if role = normaliseRole(role); role != "" {
		query = query.Where("LOWER(role) = ?", role)
	}

	var slots []models.Slot
	if err := query.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("slot service: find open slots: %w", err)
	}
	return slots, nil
}

// ListByTeam returns all slots of a team request, oldest first.
func (s *SlotService) ListByTeam(ctx context.Context, teamRequestID string) ([]models.Slot, error) {
	ctx = ensureContext(ctx)

	var slots []models.Slot
	if err := s.db.WithContext(ctx).
		Preload("FilledBy").
		Where("team_request_id = ?", strings.TrimSpace(teamRequestID)).
		Order("created_at ASC, id ASC").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("slot service: list slots: %w", err)
	}
	return slots, nil
}

// createSlotRows inserts quantity independent slot rows for one role line.
// One row per unit keeps every unit separately fillable with its own
// acceptance timestamp.
func createSlotRows(tx *gorm.DB, teamRequestID, role string, quantity int, salary *float64) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return apperrors.NewBadRequest("role name is required")
	}
	if quantity < 1 {
		return apperrors.NewBadRequest("slot quantity must be positive")
	}

	slots := make([]models.Slot, quantity)
	for i := range slots {
		slots[i] = models.Slot{
			TeamRequestID: teamRequestID,
			Role:          role,
			Salary:        salary,
		}
	}

	if err := tx.Create(&slots).Error; err != nil {
		return fmt.Errorf("slot service: create slots: %w", err)
	}
	return nil
}

// fillSlot marks a slot accepted by a candidate. It must only run inside the
// acceptance transaction: the conditional filled_by_id IS NULL guard is the
// last line of defence against two accepts racing past the row lock, and a
// zero rows-affected result means this transaction lost that race.
func fillSlot(tx *gorm.DB, slotID, candidateID string, now time.Time) error {
	result := tx.Model(&models.Slot{}).
		Where("id = ? AND filled_by_id IS NULL", slotID).
		Updates(map[string]any{
			"filled_by_id": candidateID,
			"accepted_at":  now,
		})
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return ErrSlotAlreadyFilled
		}
		return fmt.Errorf("slot service: fill slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSlotAlreadyFilled
	}
	return nil
}
