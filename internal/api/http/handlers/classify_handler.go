package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/service"
)

// ClassifyHandler serves classification suggestions.
type ClassifyHandler struct {
	service *service.ClassificationService
}

// NewClassifyHandler constructs handler.
func NewClassifyHandler(classificationService *service.ClassificationService) *ClassifyHandler {
	return &ClassifyHandler{service: classificationService}
}

// Classify POST /api/tickets/classify. A body that cannot be decoded is
// treated as an empty description, so the answer is always a suggestion.
func (h *ClassifyHandler) Classify(c *fiber.Ctx) error {
	var req dto.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		req.Description = ""
	}
	suggestion := h.service.Classify(c.UserContext(), req.Description)
	return c.JSON(dto.ClassifyResponse{
		SuggestedCategory: suggestion.Category,
		SuggestedPriority: suggestion.Priority,
	})
}

// Outcomes GET /api/tickets/classify/outcomes.
func (h *ClassifyHandler) Outcomes(c *fiber.Ctx) error {
	counts, err := h.service.OutcomeCounts(c.UserContext())
	if err != nil {
		return err
	}
	resp := make(map[string]int64, len(counts))
	for outcome, n := range counts {
		resp[string(outcome)] = n
	}
	return c.JSON(resp)
}
