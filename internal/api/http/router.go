package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/streetsweepai/streetsweep-service/internal/api/http/handlers"
	"github.com/streetsweepai/streetsweep-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Vision         *handlers.VisionHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/users/logout", cfg.Users.Logout)

	app.Get("/users", cfg.Users.List)
	app.Get("/users/:id", cfg.Users.Get)

	app.Get("/tickets", cfg.Tickets.List)
	app.Get("/tickets/:id", cfg.Tickets.Get)
	app.Post("/tickets", cfg.AuthMiddleware.Handle, cfg.Tickets.Create)
	app.Post("/tickets/:id/resolve", cfg.AuthMiddleware.Handle, cfg.Tickets.Resolve)

	app.Post("/classify", cfg.Vision.Classify)
	app.Post("/compare", cfg.Vision.Compare)
	app.Get("/insight", cfg.Vision.Insight)
}
