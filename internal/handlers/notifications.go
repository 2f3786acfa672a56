package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/middleware"
	"github.com/crewlink/crewlink/internal/notifications"
	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/mail"
	"github.com/crewlink/crewlink/pkg/response"
)

// NotificationHandler exposes in-app notification endpoints plus the
// websocket stream.
type NotificationHandler struct {
	service *services.NotificationService
	hub     *notifications.Hub
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(db *gorm.DB, hub *notifications.Hub, mailer mail.Mailer) (*NotificationHandler, error) {
	service, err := services.NewNotificationService(db, hub, mailer)
	if err != nil {
		return nil, err
	}
	return &NotificationHandler{service: service, hub: hub}, nil
}

// List returns notifications for the current principal.
func (h *NotificationHandler) List(c *gin.Context) {
	recipientID := c.GetString(middleware.CtxSubjectIDKey)
	if recipientID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	items, err := h.service.ListForRecipient(requestContext(c), recipientID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// MarkRead toggles a notification to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	recipientID := c.GetString(middleware.CtxSubjectIDKey)
	if recipientID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	dto, err := h.service.MarkRead(requestContext(c), recipientID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead marks every unread notification of the principal as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	recipientID := c.GetString(middleware.CtxSubjectIDKey)
	if recipientID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.service.MarkAllRead(requestContext(c), recipientID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// Stream upgrades the connection to a websocket delivering live events.
func (h *NotificationHandler) Stream(c *gin.Context) {
	recipientID := c.GetString(middleware.CtxSubjectIDKey)
	if recipientID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	h.hub.Serve(recipientID, c.Writer, c.Request)
}
