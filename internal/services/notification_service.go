package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/notifications"
	apperrors "github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/logger"
	"github.com/crewlink/crewlink/pkg/mail"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Severity    string         `json:"severity"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   time.Time      `json:"created_at"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
	Severity    string
	Metadata    map[string]any
	Email       string // optional; set to also deliver by mail, best-effort
}

// NotificationService persists in-app notifications, fans them out over the
// hub, and optionally mails them. All delivery beyond the database row is
// best-effort: the staffing transactions that emit events have already
// committed by the time delivery is attempted, and delivery failures are
// logged, never propagated.
type NotificationService struct {
	db     *gorm.DB
	hub    *notifications.Hub
	mailer mail.Mailer
}

// NewNotificationService constructs a NotificationService. Hub and mailer may
// be nil; persistence alone still works.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub, mailer mail.Mailer) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub, mailer: mailer}, nil
}

// Create registers a new notification and broadcasts the event.
func (s *NotificationService) Create(ctx context.Context, event string, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	recipient := strings.TrimSpace(input.RecipientID)
	if recipient == "" {
		return nil, errors.New("notification service: recipient id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	notification := models.Notification{
		RecipientID: recipient,
		Type:        notificationType,
		Title:       strings.TrimSpace(input.Title),
		Message:     strings.TrimSpace(input.Message),
		Severity:    defaultIfEmpty(input.Severity, "info"),
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	dto := mapNotification(notification)

	if s.hub != nil {
		s.hub.Broadcast(recipient, notifications.Event{Event: event, Payload: &dto})
	}

	if s.mailer != nil && strings.TrimSpace(input.Email) != "" {
		msg := mail.Message{
			To:      []string{input.Email},
			Subject: notification.Title,
			Body:    notification.Message + "\n",
		}
		if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			logger.WithModule("notifications").Warn("mail delivery failed",
				zap.String("recipient", input.Email),
				zap.Error(err),
			)
		}
	}

	return &dto, nil
}

// ListForRecipient returns notifications for the supplied principal ordered by recency.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, errors.New("notification service: recipient id is required")
	}

	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// MarkRead sets the notification read flag for a principal.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.IsRead = true
	notification.ReadAt = &now
	dto := mapNotification(notification)
	return &dto, nil
}

// MarkAllRead marks all notifications for the principal as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}
	return nil
}

// CleanupRead removes read notifications older than the retention window (in days).
func (s *NotificationService) CleanupRead(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)
	if retentionDays <= 0 {
		return 0, errors.New("notification service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: cleanup notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// notifyOfferSent tells a candidate they were invited; failures are logged only.
func (s *NotificationService) notifyStaffingEvent(ctx context.Context, event string, input CreateNotificationInput) {
	if s == nil {
		return
	}
	if _, err := s.Create(ctx, event, input); err != nil {
		logger.WithModule("notifications").Warn("staffing event delivery failed",
			zap.String("event", event),
			zap.String("recipient", input.RecipientID),
			zap.Error(err),
		)
	}
}

// OfferSent notifies a candidate about a fresh invite. Best-effort.
func (s *NotificationService) OfferSent(ctx context.Context, candidate *models.Candidate, team *models.TeamRequest, role string) {
	if s == nil || candidate == nil || team == nil {
		return
	}
	s.notifyStaffingEvent(ctx, notifications.EventOfferSent, CreateNotificationInput{
		RecipientID: candidate.Email,
		Email:       candidate.Email,
		Type:        "offer.sent",
		Title:       "New team invitation",
		Message:     fmt.Sprintf("You have been invited to join %q as %s.", team.Name, role),
		Metadata: map[string]any{
			"team_request_id": team.ID,
			"role":            role,
		},
	})
}

// OfferRevoked tells a candidate their invite was withdrawn. Best-effort.
func (s *NotificationService) OfferRevoked(ctx context.Context, candidate *models.Candidate, team *models.TeamRequest, role string) {
	if s == nil || candidate == nil || team == nil {
		return
	}
	s.notifyStaffingEvent(ctx, notifications.EventOfferRevoked, CreateNotificationInput{
		RecipientID: candidate.Email,
		Email:       candidate.Email,
		Type:        "offer.revoked",
		Title:       "Invitation withdrawn",
		Message:     fmt.Sprintf("Your invitation to join %q as %s was withdrawn.", team.Name, role),
		Metadata: map[string]any{
			"team_request_id": team.ID,
			"role":            role,
		},
	})
}

// SlotAccepted notifies the responsible admin that a slot was filled. Best-effort.
func (s *NotificationService) SlotAccepted(ctx context.Context, candidate *models.Candidate, team *models.TeamRequest, slotID, role string) {
	if s == nil || candidate == nil || team == nil {
		return
	}
	recipient := team.CompanyID
	if team.ResponsibleAdminID != nil && *team.ResponsibleAdminID != "" {
		recipient = *team.ResponsibleAdminID
	}
	s.notifyStaffingEvent(ctx, notifications.EventSlotAccepted, CreateNotificationInput{
		RecipientID: recipient,
		Type:        "slot.accepted",
		Title:       "Position filled",
		Message:     fmt.Sprintf("%s accepted the %s position on %q.", candidate.Email, role, team.Name),
		Metadata: map[string]any{
			"team_request_id": team.ID,
			"slot_id":         slotID,
			"candidate_id":    candidate.ID,
			"role":            role,
		},
	})
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          row.ID,
		RecipientID: row.RecipientID,
		Type:        row.Type,
		Title:       row.Title,
		Message:     row.Message,
		Severity:    defaultIfEmpty(row.Severity, "info"),
		Metadata:    decodeJSON(row.Metadata),
		IsRead:      row.IsRead,
		CreatedAt:   row.CreatedAt,
		ReadAt:      row.ReadAt,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
