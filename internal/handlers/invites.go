package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/middleware"
	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/response"
)

// InviteHandler exposes offer dispatch for staffing administrators.
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler constructs an invite handler.
func NewInviteHandler(db *gorm.DB, audit *services.AuditService, notifier *services.NotificationService) (*InviteHandler, error) {
	invites, err := services.NewInviteService(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	return &InviteHandler{invites: invites}, nil
}

type sendInvitesRequest struct {
	Role         string   `json:"role" validate:"required,min=1,max=100"`
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1,max=500,dive,required"`
}

// Send dispatches offers for one role of the team request. Repeating the call
// with the same candidates creates no duplicates.
func (h *InviteHandler) Send(c *gin.Context) {
	var req sendInvitesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.invites.SendInvites(requestContext(c), services.SendInvitesInput{
		TeamRequestID: c.Param("id"),
		Role:          req.Role,
		CandidateIDs:  req.CandidateIDs,
	}, c.GetString(middleware.CtxSubjectIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ListInvited returns the candidate ids holding an active offer in the team,
// optionally narrowed to one role.
func (h *InviteHandler) ListInvited(c *gin.Context) {
	ids, err := h.invites.ListActiveInviteIDs(requestContext(c), c.Param("id"), strings.TrimSpace(c.Query("role")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"candidate_ids": ids})
}
