package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opengrade/opengrade-api/internal/config"
	"github.com/opengrade/opengrade-api/internal/handler"
	"github.com/opengrade/opengrade-api/internal/middleware"
	"github.com/opengrade/opengrade-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UploadHandler *handler.UploadHandler
	GradeHandler  *handler.GradeHandler
	ExportHandler *handler.ExportHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Upload and grading both burn blob storage and model tokens, so they
	// sit behind a rate limiter. A zero max disables limiting.
	costly := fiber.Router(app)
	if cfg.RateLimitMax > 0 {
		costly = app.Group("", middleware.RateLimit("submission", cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(costly)
	}
	if deps.GradeHandler != nil {
		deps.GradeHandler.Register(costly)
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.Register(app)
	}
}
