package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/prapars-lang/kai/internal/config"
	"github.com/prapars-lang/kai/internal/handler"
	"github.com/prapars-lang/kai/internal/middleware"
	"github.com/prapars-lang/kai/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	StatsHandler      *handler.StatsHandler
	ExportHandler     *handler.ExportHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("login", 5, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	// Student surface: upload, gallery listing and result lookup.
	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions")
		submissions.Use(middleware.RateLimit("submissions", 30, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}

	// Teacher surface, JWT gated.
	teacher := api.Group("/teacher", jwtMiddleware)

	if deps.GradingHandler != nil {
		grading := teacher.Group("/grading")
		deps.GradingHandler.Register(grading)
	}

	if deps.StatsHandler != nil {
		deps.StatsHandler.Register(teacher)
	}

	if deps.ExportHandler != nil {
		deps.ExportHandler.Register(teacher)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(teacher)
	}
}
