package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp builds the fiber application with all blueprint routes mounted.
func NewApp(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Waflow Blueprint API")
	})

	app.Get("/nodes", handlers.GetNodes)
	app.Post("/blueprints/validate", handlers.ValidateBlueprint)
	app.Post("/blueprints/recommend", handlers.Recommend)
	app.Post("/blueprints/selection", handlers.ValidateSelection)

	b := app.Group("/bots/:botID/blueprints")
	b.Post("/", handlers.CreateBlueprint)
	b.Get("/", handlers.GetBlueprints)
	b.Get("/:id", handlers.GetBlueprint)
	b.Put("/:id", handlers.UpdateBlueprint)
	b.Delete("/:id", handlers.DeleteBlueprint)
	b.Post("/:id/prepare", handlers.PrepareBlueprint)

	app.Get("/health", handlers.HealthCheck)

	return app
}
