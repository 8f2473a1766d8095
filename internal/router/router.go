package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/driftwatch/driftd/internal/config"
	"github.com/driftwatch/driftd/internal/handlers"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/middleware"
	"github.com/driftwatch/driftd/internal/scoring"
	"github.com/driftwatch/driftd/internal/snapshot"
	"github.com/driftwatch/driftd/internal/utils"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, scoringSvc *scoring.Service, snapshots *snapshot.Store, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, scoringSvc, snapshots)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API key authentication middleware
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", authMiddleware)

	// Sample Ingestion Routes
	v1.Post("/signals/:signal/observe", h.Observe)
	v1.Post("/observe/batch", h.ObserveBatch)

	// Baseline Query Routes
	v1.Get("/signals", h.ListSignals)
	v1.Get("/signals/:signal/baseline", h.GetBaseline)
	v1.Get("/signals/:signal/score", h.Score)
	v1.Get("/signals/:signal/trend", h.GetTrend)
	v1.Get("/signals/:signal/baseline/seasonal", h.GetSeasonalBaseline)
	v1.Post("/signals/:signal/baseline/seasonal/refresh", h.RefreshSeasonalBaseline)

	// Signal Management Routes
	v1.Delete("/signals/:signal", h.DeleteSignal)

	// Admin Routes (protected by API key)
	admin := app.Group("/admin", authMiddleware)
	admin.Post("/snapshot", h.TriggerSnapshot)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, scoringSvc *scoring.Service, snapshots *snapshot.Store, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "driftd",
		DisableStartupMessage: true,
		ReadTimeout:           utils.DefaultRequestTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, scoringSvc, snapshots, cfg)

	return app
}
