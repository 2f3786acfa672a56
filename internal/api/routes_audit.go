package api

import (
	"github.com/gin-gonic/gin"

	"github.com/crewlink/crewlink/internal/handlers"
	"github.com/crewlink/crewlink/internal/middleware"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler) {
	api.GET("/audit", middleware.RequireAdmin(), handler.List)
}
