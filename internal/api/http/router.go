package http

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/agservice/internal/api/http/handlers"
	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Pages           *handlers.PagesHandler
	ServiceRequests *handlers.ServiceRequestsHandler
	Dashboard       *handlers.DashboardHandler
	AuthMiddleware  *auth.AuthMiddleware
	Policy          *auth.Policy
	Metrics         *observability.Metrics
	StaticDir       string
}

// RegisterRoutes wires HTTP routes. Every request passes authentication and
// the route policy before reaching a handler.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle, cfg.Policy.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	if cfg.StaticDir != "" {
		app.Static("/css", filepath.Join(cfg.StaticDir, "css"))
		app.Static("/js", filepath.Join(cfg.StaticDir, "js"))
		app.Static("/images", filepath.Join(cfg.StaticDir, "images"))
	}

	app.Get("/", cfg.Pages.Root)
	app.Get("/login", cfg.Pages.Login)
	app.Get("/signup", cfg.Pages.Signup)
	app.Get("/403", cfg.Pages.Forbidden)
	app.Get("/logout", cfg.Auth.LogoutPage)
	app.Get("/as/dashboard", cfg.Pages.Dashboard)
	app.Get("/as/list", cfg.Pages.List)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Auth.Me)
	authGroup.Post("/signup", cfg.Auth.Signup)

	requests := app.Group("/api/as")
	requests.Get("/list", cfg.ServiceRequests.List)
	requests.Post("/write", cfg.ServiceRequests.Write)
	requests.Delete("/delete/:id", cfg.ServiceRequests.Delete)
	requests.Get("/:id", cfg.ServiceRequests.Get)

	app.Get("/api/dash/summary", cfg.Dashboard.Summary)
}
