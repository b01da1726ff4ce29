package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Users.Register)
	app.Post("/auth/login", cfg.Users.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle)

	authed.Get("/users/me", cfg.Users.Me)
	authed.Post("/users/me/chat-link", cfg.Users.LinkChat)
	authed.Patch("/users/role", auth.RequireRole(domain.RoleAdmin), cfg.Users.SetRole)

	authed.Post("/tickets", cfg.Tickets.Create)
	authed.Get("/tickets", cfg.Tickets.ListRecent)
	authed.Get("/tickets/search", auth.RequireStaff(), cfg.Tickets.Search)
	authed.Get("/tickets/stats/status", auth.RequireStaff(), cfg.Tickets.CountByStatus)
	authed.Get("/tickets/:number", cfg.Tickets.Get)
	authed.Patch("/tickets/:number/status", cfg.Tickets.ChangeStatus)
	authed.Patch("/tickets/:number/priority", auth.RequireStaff(), cfg.Tickets.ChangePriority)
	authed.Patch("/tickets/:number/assignee", auth.RequireStaff(), cfg.Tickets.Assign)
	authed.Delete("/tickets/:number", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Delete)

	authed.Post("/tickets/:number/comments", cfg.Comments.Create)
	authed.Get("/tickets/:number/comments", cfg.Comments.List)
	authed.Patch("/tickets/:number/comments/:id", cfg.Comments.Edit)
}
