package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ticketbooth/eventpass/internal/api/http/handlers"
	"github.com/ticketbooth/eventpass/internal/auth"
	"github.com/ticketbooth/eventpass/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	site := app.Group("", cfg.AuthMiddleware.Handle)

	site.Get("/", cfg.Users.Home)
	site.Post("/", cfg.Users.Home)
	site.Get("/login", cfg.Users.LoginPage)
	site.Post("/login", cfg.Users.Login)
	site.Post("/logout", cfg.Users.Logout)
	site.Get("/register_user", cfg.Users.RegisterPage)
	site.Post("/register_user", cfg.Users.Register)

	session := auth.RequireSession()
	site.Get("/register", session, cfg.Tickets.PurchasePage)
	site.Post("/register", session, cfg.Tickets.Purchase)

	admin := auth.RequireAdmin()
	site.Get("/admin", admin, cfg.Admin.ListUsers)
	site.Get("/admin/edit", admin, cfg.Admin.EditPage)
	site.Post("/admin/edit", admin, cfg.Admin.EditUser)
	site.Get("/admin/delete", admin, cfg.Admin.DeleteUser)
	site.Get("/purchase_history", admin, cfg.Tickets.History)
}
