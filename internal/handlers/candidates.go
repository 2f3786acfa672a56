package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/middleware"
	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/response"
)

// CandidateHandler exposes read access to the candidate directory.
type CandidateHandler struct {
	candidates *services.CandidateService
}

// NewCandidateHandler constructs a candidate handler.
func NewCandidateHandler(db *gorm.DB) (*CandidateHandler, error) {
	candidates, err := services.NewCandidateService(db)
	if err != nil {
		return nil, err
	}
	return &CandidateHandler{candidates: candidates}, nil
}

// List returns directory candidates, optionally narrowed by preferred role
// and eligibility.
func (h *CandidateHandler) List(c *gin.Context) {
	candidates, err := h.candidates.List(requestContext(c), services.ListCandidatesInput{
		Role:         strings.TrimSpace(c.Query("role")),
		EligibleOnly: c.Query("eligible_only") == "true",
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, candidates)
}

// Get returns one candidate profile.
func (h *CandidateHandler) Get(c *gin.Context) {
	candidate, err := h.candidates.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, candidate)
}

// Assignments returns the slots a candidate has accepted.
func (h *CandidateHandler) Assignments(c *gin.Context) {
	assignments, err := h.candidates.AssignmentsByCandidate(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, assignments)
}

// MyAssignments returns the calling candidate's accepted slots.
func (h *CandidateHandler) MyAssignments(c *gin.Context) {
	email := c.GetString(middleware.CtxEmailKey)
	if email == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	candidate, err := h.candidates.FindByEmail(requestContext(c), email)
	if err != nil {
		response.Error(c, err)
		return
	}

	assignments, err := h.candidates.AssignmentsByCandidate(requestContext(c), candidate.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, assignments)
}
