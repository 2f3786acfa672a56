package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/middleware"
	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/response"
)

// TeamRequestHandler exposes the team request lifecycle endpoints.
type TeamRequestHandler struct {
	teams     *services.TeamRequestService
	slots     *services.SlotService
	summaries *services.SummaryService
}

// NewTeamRequestHandler constructs a team request handler.
func NewTeamRequestHandler(db *gorm.DB, audit *services.AuditService) (*TeamRequestHandler, error) {
	teams, err := services.NewTeamRequestService(db, audit)
	if err != nil {
		return nil, err
	}
	slots, err := services.NewSlotService(db)
	if err != nil {
		return nil, err
	}
	summaries, err := services.NewSummaryService(db)
	if err != nil {
		return nil, err
	}
	return &TeamRequestHandler{teams: teams, slots: slots, summaries: summaries}, nil
}

type roleLineRequest struct {
	Role     string   `json:"role" validate:"required,min=1,max=100"`
	Quantity int      `json:"quantity" validate:"required,min=1,max=200"`
	Salary   *float64 `json:"salary,omitempty" validate:"omitempty,gt=0"`
}

type createTeamRequest struct {
	CompanyID   string            `json:"company_id" validate:"required"`
	Name        string            `json:"name" validate:"required,min=1,max=200"`
	Description string            `json:"description,omitempty" validate:"max=2000"`
	Location    string            `json:"location,omitempty" validate:"max=200"`
	StartsAt    *time.Time        `json:"starts_at,omitempty"`
	EndsAt      *time.Time        `json:"ends_at,omitempty"`
	Roles       []roleLineRequest `json:"roles" validate:"required,min=1,dive"`
}

// Create registers a team request with its role demand lines.
func (h *TeamRequestHandler) Create(c *gin.Context) {
	var req createTeamRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.CreateTeamRequestInput{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	for _, line := range req.Roles {
		input.Roles = append(input.Roles, services.RoleLineInput{
			Role:     line.Role,
			Quantity: line.Quantity,
			Salary:   line.Salary,
		})
	}

	team, err := h.teams.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, team)
}

// Get returns one team request with its slots.
func (h *TeamRequestHandler) Get(c *gin.Context) {
	team, err := h.teams.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// List returns team requests, optionally narrowed by company and state.
func (h *TeamRequestHandler) List(c *gin.Context) {
	teams, err := h.teams.List(requestContext(c), services.ListTeamRequestsInput{
		CompanyID: strings.TrimSpace(c.Query("company_id")),
		State:     strings.TrimSpace(c.Query("state")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, teams)
}

type updateStateRequest struct {
	State string `json:"state" validate:"required,oneof=OPEN INCOMPLETE COMPLETE"`
}

// UpdateState transitions a team request between lifecycle states.
func (h *TeamRequestHandler) UpdateState(c *gin.Context) {
	var req updateStateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	team, err := h.teams.UpdateState(requestContext(c), c.Param("id"),
		models.TeamRequestState(req.State), c.GetString(middleware.CtxSubjectIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

type assignResponsibleRequest struct {
	AdminID string `json:"admin_id" validate:"required"`
}

// AssignResponsible records the administrator handling staffing for the request.
func (h *TeamRequestHandler) AssignResponsible(c *gin.Context) {
	var req assignResponsibleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	team, err := h.teams.AssignResponsible(requestContext(c), c.Param("id"),
		req.AdminID, c.GetString(middleware.CtxSubjectIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// ListSlots returns the slot rows of one team request.
func (h *TeamRequestHandler) ListSlots(c *gin.Context) {
	teamID := strings.TrimSpace(c.Param("id"))
	if teamID == "" {
		response.Error(c, errors.NewBadRequest("team request id is required"))
		return
	}

	var (
		slots []models.Slot
		err   error
	)
	if role := strings.TrimSpace(c.Query("role")); role != "" && c.Query("open") == "true" {
		slots, err = h.slots.FindOpenSlots(requestContext(c), teamID, role)
	} else {
		slots, err = h.slots.ListByTeam(requestContext(c), teamID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, slots)
}

// Summary returns the per-role fill progress rollup for one team request.
func (h *TeamRequestHandler) Summary(c *gin.Context) {
	summary, err := h.summaries.TeamSummary(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
