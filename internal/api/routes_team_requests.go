package api

import (
	"github.com/gin-gonic/gin"

	"github.com/crewlink/crewlink/internal/handlers"
	"github.com/crewlink/crewlink/internal/middleware"
)

func registerTeamRequestRoutes(api *gin.RouterGroup, teams *handlers.TeamRequestHandler, invites *handlers.InviteHandler, search *handlers.SearchHandler) {
	group := api.Group("/team-requests")
	group.Use(middleware.RequireAdmin())
	{
		group.POST("", teams.Create)
		group.GET("", teams.List)
		group.GET("/:id", teams.Get)
		group.PATCH("/:id/state", teams.UpdateState)
		group.PATCH("/:id/responsible", teams.AssignResponsible)
		group.GET("/:id/slots", teams.ListSlots)
		group.GET("/:id/summary", teams.Summary)

		group.POST("/:id/invites", invites.Send)
		group.GET("/:id/invites", invites.ListInvited)
		group.POST("/:id/search", search.Search)
	}
}
