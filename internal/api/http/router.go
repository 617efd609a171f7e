package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-service/internal/api/http/handlers"
	"github.com/spec-kit/practice-service/internal/auth"
	"github.com/spec-kit/practice-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Cases          *handlers.CasesHandler
	Clients        *handlers.ResourceHandler[domain.Client]
	Documents      *handlers.ResourceHandler[domain.Document]
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Get("/sessions", cfg.Auth.ListSessions)
	authProtected.Get("/login-history", cfg.Auth.LoginHistory)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	cases := api.Group("/cases")
	cases.Get("/", cfg.Cases.List)
	cases.Post("/", cfg.Cases.Create)
	cases.Get("/analytics", cfg.Cases.Analytics)
	cases.Get("/my-cases", cfg.Cases.MyCases)
	cases.Get("/:id", cfg.Cases.Get)
	cases.Put("/:id", cfg.Cases.Update)
	cases.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Cases.Delete)
	cases.Put("/:id/assign", cfg.Cases.Assign)
	cases.Put("/:id/status", cfg.Cases.ChangeStatus)
	cases.Post("/:id/notes", cfg.Cases.AddNote)
	cases.Get("/:id/timeline", cfg.Cases.Timeline)

	cfg.Clients.Register(api, "/clients")
	cfg.Documents.Register(api, "/documents")
}
