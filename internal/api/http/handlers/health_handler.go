package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/persistence"
)

const readinessTimeout = 2 * time.Second

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        []dependency
}

// dependency is one readiness check. A failing optional dependency is
// reported as degraded without failing readiness.
type dependency struct {
	name       string
	optional   bool
	configured func() bool
	ping       func(context.Context) error
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		deps: []dependency{
			{name: "postgres", configured: postgres.Configured, ping: postgres.Ping},
			// only outcome counters live in redis
			{name: "redis", optional: true, configured: redis.Configured, ping: redis.Ping},
		},
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings each configured dependency. One that is not configured is
// served from memory and reported as such.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, dep := range h.deps {
		if !dep.configured() {
			depStatus[dep.name] = "memory"
			continue
		}
		if err := dep.ping(ctx); err != nil {
			if dep.optional {
				depStatus[dep.name] = "degraded: " + err.Error()
				continue
			}
			depStatus[dep.name] = err.Error()
			ready = false
			continue
		}
		depStatus[dep.name] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
