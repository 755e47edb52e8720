package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/service"
)

// StatsHandler serves the aggregate report.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// Stats GET /api/tickets/stats.
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	report, err := h.service.ComputeStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsResponse(report))
}
