package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/observability"
)

// RootHandler describes the API and exposes request counters.
type RootHandler struct {
	serviceName string
	version     string
	metrics     *observability.Metrics
}

// NewRootHandler returns a new handler instance.
func NewRootHandler(serviceName, version string, metrics *observability.Metrics) *RootHandler {
	return &RootHandler{serviceName: serviceName, version: version, metrics: metrics}
}

// Index GET /.
func (h *RootHandler) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    h.serviceName,
		"version": h.version,
		"endpoints": fiber.Map{
			"tickets":           "/api/tickets/",
			"ticket_detail":     "/api/tickets/{id}/",
			"stats":             "/api/tickets/stats/",
			"classify":          "/api/tickets/classify/",
			"classify_outcomes": "/api/tickets/classify/outcomes/",
			"health_live":       "/health/live",
			"health_ready":      "/health/ready",
			"metrics":           "/metrics",
		},
	})
}

// Metrics GET /metrics.
func (h *RootHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
