package api

import (
	"github.com/gin-gonic/gin"

	"github.com/crewlink/crewlink/internal/handlers"
	"github.com/crewlink/crewlink/internal/middleware"
)

func registerOfferRoutes(api *gin.RouterGroup, offers *handlers.OfferHandler) {
	// Candidate self-service
	mine := api.Group("/offers")
	mine.Use(middleware.RequireCandidate())
	{
		mine.GET("/mine", offers.ListMine)
	}
	api.POST("/slots/:slotID/accept", middleware.RequireCandidate(), offers.Accept)

	// Administrative revocation
	api.POST("/offers/:id/revoke", middleware.RequireAdmin(), offers.Revoke)
}
