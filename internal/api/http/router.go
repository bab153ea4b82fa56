package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/match-service/internal/api/http/handlers"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Matches        *handlers.MatchesHandler
	Events         *handlers.EventsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/startups/register", cfg.Auth.RegisterStartup)
	authGroup.Post("/incubators/register", cfg.Auth.RegisterIncubator)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	parties := auth.RequireRoles(domain.RoleStartup, domain.RoleIncubator)
	matches := app.Group("/matches", cfg.AuthMiddleware.Handle)
	matches.Get("/", parties, cfg.Matches.List)
	matches.Get("/suggestions", parties, cfg.Matches.Suggestions)
	// Role eligibility for proposals is decided by the match service.
	matches.Post("/", cfg.Matches.Create)
	matches.Get("/:id", cfg.Matches.Get)
	matches.Put("/:id", cfg.Matches.UpdateStatus)
	matches.Delete("/:id", cfg.Matches.Delete)

	app.Get("/events", cfg.AuthMiddleware.Handle, cfg.Events.Stream)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRoles(domain.RoleAdmin))
	admin.Delete("/participants/:id", cfg.Admin.RemoveParticipant)
}
