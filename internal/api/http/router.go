package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Complaints      *handlers.ComplaintsHandler
	Admin           *handlers.AdminHandler
	AdminMiddleware *auth.AdminMiddleware
	RateLimiter     fiber.Handler
	AdminAssetsDir  string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Info)
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	if cfg.RateLimiter != nil {
		api.Post("/complaints", cfg.RateLimiter, cfg.Complaints.Submit)
	} else {
		api.Post("/complaints", cfg.Complaints.Submit)
	}
	api.Get("/complaints", cfg.Complaints.List)
	api.Get("/complaints/:id", cfg.Complaints.Get)
	api.Get("/complaints/:id/history", cfg.Complaints.History)

	adminGroup := api.Group("/admin")
	adminGroup.Post("/session", cfg.Admin.CreateSession)

	protected := adminGroup.Group("", cfg.AdminMiddleware.Handle)
	protected.Get("/stats", cfg.Admin.Stats)
	protected.Get("/departments", cfg.Admin.Departments)
	protected.Get("/metrics", cfg.Admin.Metrics)
	protected.Patch("/complaints/:id/status", cfg.Admin.UpdateStatus)
	protected.Post("/notify/:id", cfg.Admin.Notify)

	if cfg.AdminAssetsDir != "" {
		app.Static("/admin", cfg.AdminAssetsDir)
	}
}
