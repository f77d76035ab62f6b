package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/handlers"
	"github.com/civigo/civigo/internal/middleware"
	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/internal/monitoring"
	"github.com/civigo/civigo/internal/services"
)

// Deps bundles everything the router mounts.
type Deps struct {
	JWT          *iauth.JWTService
	Applications *services.ApplicationService
	Extraction   *services.ExtractionService
	Login        *services.LoginService
	Holders      *services.HolderService
	Audit        *services.AuditService
	Health       *monitoring.HealthManager

	// Rate limiting for the public biometric endpoints. Zero disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Prometheus exposition path. Empty disables the route.
	MetricsEndpoint string
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	switch {
	case deps.JWT == nil:
		return nil, fmt.Errorf("jwt service must be provided")
	case deps.Applications == nil:
		return nil, fmt.Errorf("application service must be provided")
	case deps.Login == nil:
		return nil, fmt.Errorf("login service must be provided")
	case deps.Holders == nil:
		return nil, fmt.Errorf("holder service must be provided")
	case deps.Audit == nil:
		return nil, fmt.Errorf("audit service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Health endpoints (public)
	healthHandler := handlers.NewHealthHandler(deps.Health)
	r.GET("/health", healthHandler.Overview)
	r.GET("/health/live", healthHandler.Live)
	r.GET("/health/ready", healthHandler.Ready)

	appHandler := handlers.NewApplicationHandler(deps.Applications, deps.Extraction)
	authHandler := handlers.NewAuthHandler(deps.Login)
	holderHandler := handlers.NewHolderHandler(deps.Holders)
	auditHandler := handlers.NewAuditHandler(deps.Audit)

	limit := middleware.RateLimit(deps.RateLimitRequests, deps.RateLimitWindow)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/applications", limit, appHandler.Submit)
		if deps.Extraction != nil {
			public.POST("/applications/extract", limit, appHandler.Extract)
		}

		public.POST("/auth/login", limit, authHandler.Login)
		public.POST("/auth/complete", limit, authHandler.Complete)
		public.POST("/auth/admin/login", limit, authHandler.AdminLogin)
		public.POST("/auth/refresh", authHandler.Refresh)

		public.GET("/holders/:uin/verify", holderHandler.Verify)
		public.GET("/holders/:uin/qr", holderHandler.QR)
	}

	// Protected routes
	requireAuth := middleware.Auth(deps.JWT)
	requireReviewer := middleware.RequireRole(models.RoleReviewer)

	authed := r.Group("/api")
	authed.Use(requireAuth)
	{
		authed.GET("/applications/:id", appHandler.Get)
		authed.GET("/applications", requireReviewer, appHandler.List)
		authed.GET("/applications/:id/images", requireReviewer, appHandler.Images)
		authed.POST("/applications/:id/review", requireReviewer, appHandler.Review)
		authed.POST("/holders/:uin/suspend", requireReviewer, holderHandler.Suspend)
		authed.GET("/audit", requireReviewer, auditHandler.List)
	}

	// Metrics endpoint
	if deps.MetricsEndpoint != "" {
		r.GET(deps.MetricsEndpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
