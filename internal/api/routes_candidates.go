package api

import (
	"github.com/gin-gonic/gin"

	"github.com/crewlink/crewlink/internal/handlers"
	"github.com/crewlink/crewlink/internal/middleware"
)

func registerCandidateRoutes(api *gin.RouterGroup, candidates *handlers.CandidateHandler) {
	api.GET("/assignments/mine", middleware.RequireCandidate(), candidates.MyAssignments)

	group := api.Group("/candidates")
	group.Use(middleware.RequireAdmin())
	{
		group.GET("", candidates.List)
		group.GET("/:id", candidates.Get)
		group.GET("/:id/assignments", candidates.Assignments)
	}
}
