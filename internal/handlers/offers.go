package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/middleware"
	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/response"
)

// OfferHandler exposes candidate-facing offer views, the acceptance endpoint
// and administrative revocation.
type OfferHandler struct {
	offers     *services.OfferService
	acceptance *services.AcceptanceService
}

// NewOfferHandler constructs an offer handler.
func NewOfferHandler(db *gorm.DB, audit *services.AuditService, notifier *services.NotificationService) (*OfferHandler, error) {
	offers, err := services.NewOfferService(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	acceptance, err := services.NewAcceptanceService(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	return &OfferHandler{offers: offers, acceptance: acceptance}, nil
}

// ListMine returns the calling candidate's offers. With ?all=true the full
// history including retired offers is returned.
func (h *OfferHandler) ListMine(c *gin.Context) {
	email := c.GetString(middleware.CtxEmailKey)
	if email == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var (
		views []services.CandidateOfferView
		err   error
	)
	if c.Query("all") == "true" {
		views, err = h.offers.ListAllByCandidate(requestContext(c), email)
	} else {
		views, err = h.offers.ListActiveByCandidate(requestContext(c), email)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

// Accept fills the slot on behalf of the calling candidate.
func (h *OfferHandler) Accept(c *gin.Context) {
	email := c.GetString(middleware.CtxEmailKey)
	if email == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	result, err := h.acceptance.AcceptOffer(requestContext(c), c.Param("slotID"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Revoke retires a single offer.
func (h *OfferHandler) Revoke(c *gin.Context) {
	err := h.offers.Revoke(requestContext(c), c.Param("id"), c.GetString(middleware.CtxSubjectIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
