package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/response"
)

// SearchHandler answers team-scoped candidate searches.
type SearchHandler struct {
	search *services.SearchService
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(db *gorm.DB, audit *services.AuditService, notifier *services.NotificationService) (*SearchHandler, error) {
	invites, err := services.NewInviteService(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	search, err := services.NewSearchService(db, invites)
	if err != nil {
		return nil, err
	}
	return &SearchHandler{search: search}, nil
}

type searchCandidatesRequest struct {
	Role   string   `json:"role,omitempty" validate:"omitempty,max=100"`
	Skills []string `json:"skills,omitempty" validate:"omitempty,max=50,dive,max=100"`
	Areas  []string `json:"areas,omitempty" validate:"omitempty,max=50,dive,max=100"`
	Status string   `json:"status,omitempty" validate:"omitempty,oneof=INVITED ACCEPTED NO_PROPOSAL"`
}

// Search lists eligible candidates matching the filters, each tagged with
// their status relative to the scoped team.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchCandidatesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rows, err := h.search.SearchCandidates(requestContext(c), services.SearchCandidatesInput{
		TeamRequestID: c.Param("id"),
		Role:          req.Role,
		Skills:        req.Skills,
		Areas:         req.Areas,
		Status:        req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}
