// Package main provides the Flowforge API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowforge/pkg/services"
	"github.com/dukex/flowforge/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger     *slog.Logger
	generation *services.Generation
	validate   *validator.Validate
}

func NewAPI(logger *slog.Logger, generation *services.Generation) *API {
	return &API{
		logger:     logger,
		generation: generation,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.generation, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowforge API")
	})

	w := app.Group("/workflows")
	w.Post("/generate", handlers.GenerateWorkflow)
	w.Post("/validate", handlers.ValidateWorkflow)
	w.Post("/preview", handlers.PreviewWorkflow)
	w.Get("/node-types", handlers.GetNodeTypes)
	w.Get("/templates", handlers.GetTemplates)
	w.Post("/save/:id", handlers.SaveWorkflowFiles)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
