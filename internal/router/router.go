package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jtiebel/formguard-api/internal/config"
	"github.com/jtiebel/formguard-api/internal/handler"
	"github.com/jtiebel/formguard-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluateHandler *handler.EvaluateHandler
	TokenHandler    *handler.TokenHandler
	AuditHandler    *handler.AuditHandler
	JWTMiddleware   fiber.Handler
	RateLimiter     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.EvaluateHandler != nil {
		evaluate := api.Group("/evaluate")
		if deps.RateLimiter != nil {
			evaluate.Use(deps.RateLimiter)
		}
		deps.EvaluateHandler.Register(evaluate)
	}

	if deps.TokenHandler != nil {
		deps.TokenHandler.Register(api.Group("/tokens"))
	}

	// Admin surface requires a valid JWT; without one configured routes
	// still register behind a deny-all guard.
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return fiber.ErrUnauthorized }
	}

	if deps.AuditHandler != nil {
		admin := app.Group("/api/admin", jwtMiddleware)
		deps.AuditHandler.Register(admin.Group("/audit"))
	}
}
