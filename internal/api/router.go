package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/app"
	iauth "github.com/crewlink/crewlink/internal/auth"
	"github.com/crewlink/crewlink/internal/handlers"
	"github.com/crewlink/crewlink/internal/middleware"
	"github.com/crewlink/crewlink/internal/notifications"
	"github.com/crewlink/crewlink/internal/services"
	"github.com/crewlink/crewlink/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *notifications.Hub, mailer mail.Mailer) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if hub == nil {
		hub = notifications.NewHub()
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if rl := cfg.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(middleware.NewMemoryRateStore(), rl.MaxRequests, rl.Window))
	}

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}

	// Shared services
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	notifier, err := services.NewNotificationService(db, hub, mailer)
	if err != nil {
		return nil, err
	}

	// Handlers
	teamHandler, err := handlers.NewTeamRequestHandler(db, audit)
	if err != nil {
		return nil, err
	}
	inviteHandler, err := handlers.NewInviteHandler(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	offerHandler, err := handlers.NewOfferHandler(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	searchHandler, err := handlers.NewSearchHandler(db, audit, notifier)
	if err != nil {
		return nil, err
	}
	candidateHandler, err := handlers.NewCandidateHandler(db)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(db, hub, mailer)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(db)
	if err != nil {
		return nil, err
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	registerTeamRequestRoutes(api, teamHandler, inviteHandler, searchHandler)
	registerOfferRoutes(api, offerHandler)
	registerCandidateRoutes(api, candidateHandler)
	registerNotificationRoutes(api, notificationHandler)
	registerAuditRoutes(api, auditHandler)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
