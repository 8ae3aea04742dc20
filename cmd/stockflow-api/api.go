// Package main provides the stockflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockflow-io/stockflow/pkg/monitor"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/registry"
	"github.com/stockflow-io/stockflow/pkg/scheduler"
	"github.com/stockflow-io/stockflow/pkg/web"
	"github.com/stockflow-io/stockflow/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	engine      *workflow.Engine
	monitor     *monitor.Monitor
	scheduler   *scheduler.Scheduler
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	m *monitor.Monitor,
	s *scheduler.Scheduler,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: p,
		registry:    reg,
		engine:      workflow.NewEngine(p, reg, tracer, logger),
		monitor:     m,
		scheduler:   s,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.persistence, a.engine, a.monitor, a.scheduler, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stockflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	app.Post("/triggers/:type", handlers.FireTrigger)

	al := app.Group("/alerts")
	al.Get("/", handlers.GetAlerts)
	al.Post("/check", handlers.CheckAlerts)
	al.Post("/:id/acknowledge", handlers.AcknowledgeAlert)
	al.Post("/:id/resolve", handlers.ResolveAlert)

	t := app.Group("/tasks")
	t.Get("/", handlers.GetTasks)
	t.Post("/", handlers.CreateTask)
	t.Post("/:id/execute", handlers.ExecuteTask)
	t.Get("/:id/executions", handlers.GetTaskExecutions)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
