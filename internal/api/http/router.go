package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/observability"
)

// AppDependencies carries the cross-cutting collaborators of the HTTP app.
type AppDependencies struct {
	Name           string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Root     *handlers.RootHandler
	Health   *handlers.HealthHandler
	Tickets  *handlers.TicketsHandler
	Stats    *handlers.StatsHandler
	Classify *handlers.ClassifyHandler
}

// RegisterRoutes wires HTTP routes. Trailing slashes are optional because the
// app runs with non-strict routing.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Root.Index)
	app.Get("/metrics", cfg.Root.Metrics)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/api/tickets")
	// fixed segments before /:id
	tickets.Get("/stats", cfg.Stats.Stats)
	tickets.Post("/classify", cfg.Classify.Classify)
	tickets.Get("/classify/outcomes", cfg.Classify.Outcomes)

	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)
}

// NewApp builds the fiber app with middlewares and routes registered.
func NewApp(deps AppDependencies, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               deps.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, deps.RequestTimeout)
	RegisterRoutes(app, routes)
	return app
}
