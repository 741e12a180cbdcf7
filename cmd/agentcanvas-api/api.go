// Package main provides the AgentCanvas API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/agentcanvas/agentcanvas/pkg/eventbus"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
	"github.com/agentcanvas/agentcanvas/pkg/registry"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
	"github.com/agentcanvas/agentcanvas/pkg/services"
	"github.com/agentcanvas/agentcanvas/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	runnerCfg   runner.Config
	validate    *validator.Validate
	runService  *services.RunService
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	runnerCfg runner.Config,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		runnerCfg:   runnerCfg,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	canvasService := services.NewCanvasService(a.persistence, a.eventBus, a.registry, a.logger)
	a.runService = services.NewRunService(a.persistence, a.eventBus, a.logger, a.runnerCfg)

	handlers := web.NewAPIHandlers(canvasService, a.runService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("AgentCanvas API")
	})

	canvases := app.Group("/canvases")
	canvases.Get("/", handlers.GetCanvases)
	canvases.Post("/", handlers.CreateCanvas)
	canvases.Get("/:id", handlers.GetCanvas)
	canvases.Patch("/:id", handlers.UpdateCanvas)
	canvases.Delete("/:id", handlers.DeleteCanvas)

	// Graph endpoints:
	canvases.Post("/:id/nodes", handlers.CreateNode)
	canvases.Patch("/:id/nodes/:nodeId/config", handlers.UpdateNodeConfig)
	canvases.Delete("/:id/nodes/:nodeId", handlers.DeleteNode)
	canvases.Post("/:id/nodes/:nodeId/ports", handlers.AddRouterPort)
	canvases.Delete("/:id/nodes/:nodeId/ports/:index", handlers.RemoveRouterPort)
	canvases.Post("/:id/connections", handlers.CreateConnection)
	canvases.Delete("/:id/connections/:connectionId", handlers.DeleteConnection)

	// Network and run endpoints:
	canvases.Get("/:id/networks", handlers.GetNetworks)
	canvases.Get("/:id/validate", handlers.ValidateCanvas)
	canvases.Post("/:id/run", handlers.RunCanvas)

	executions := app.Group("/executions")
	executions.Get("/", handlers.GetExecutions)
	executions.Get("/:executionId", handlers.GetExecution)
	executions.Get("/:executionId/status", handlers.GetExecutionStatus)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	if err := a.runService.Start(ctx); err != nil {
		return err
	}
	defer a.runService.Close()

	return app.Listen(":" + strconv.Itoa(port))
}
