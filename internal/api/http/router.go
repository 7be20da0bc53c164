package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/namann16/support-tickets/internal/api/http/handlers"
	"github.com/namann16/support-tickets/internal/auth"
	"github.com/namann16/support-tickets/internal/domain"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Screens        *handlers.ScreensHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	staffOnly := auth.RequireRole(domain.RoleAdmin, domain.RoleAgent)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", cfg.RateLimit, cfg.Users.Register)
	users.Post("/login", cfg.RateLimit, cfg.Users.Login)
	users.Post("/forgot-password", cfg.RateLimit, cfg.Users.ForgotPassword)
	users.Post("/reset-password", cfg.RateLimit, cfg.Users.ResetPassword)
	users.Get("/verify-email", cfg.RateLimit, cfg.Users.VerifyEmail)

	protected := users.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/", adminOnly, cfg.Users.List)
	protected.Get("/role/:role", adminOnly, cfg.Users.ListByRole)
	protected.Get("/:id", cfg.Users.GetByID)
	protected.Put("/:id/deactivate", adminOnly, cfg.Users.Deactivate)
	protected.Put("/:id/role", adminOnly, cfg.Users.ChangeRole)
	protected.Put("/:id", adminOnly, cfg.Users.Update)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/me", cfg.Tickets.ListMine)
	tickets.Get("/filter/params", staffOnly, cfg.Tickets.Filter)
	tickets.Get("/user/:userId", staffOnly, cfg.Tickets.ListByUser)
	tickets.Get("/", staffOnly, cfg.Tickets.ListAll)
	tickets.Get("/:id", cfg.Tickets.GetByID)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assign", staffOnly, cfg.Tickets.Assign)
	tickets.Delete("/:id", staffOnly, cfg.Tickets.Delete)

	app.Get("/screens", cfg.AuthMiddleware.Handle, cfg.Screens.List)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route")
	})
}
