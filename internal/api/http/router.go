package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/forum-service/internal/api/http/handlers"
	"github.com/spec-kit/forum-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs GET /metrics; nil leaves the endpoint unregistered.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. Probes and metrics are registered ahead of the
// ban check; every forum route sits behind it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	mw := cfg.AuthMiddleware
	app.Use(mw.RequestScope(), mw.BanCheck())

	users := app.Group("/user")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Get("/me", mw.OptionalIdentity(), cfg.Users.Me)
	users.Get("/:id", mw.LoginRequired(), cfg.Users.ByID)
	users.Get("/:id/roles", mw.AnyRoleRequired("admin", "moderator"), cfg.Users.Roles)

	roles := app.Group("/user-roles")
	roles.Post("/assigned", mw.RoleRequired("admin"), cfg.Roles.Assign)
	roles.Delete("/assigned", mw.RoleRequired("admin"), cfg.Roles.Revoke)
}
