package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/service"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// PatchTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	var req dto.PatchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.PatchTicket(c.UserContext(), c.Params("id"), service.TicketPatchInput{
		Status:   req.Status,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	}
	details := map[string]any{}
	var err error
	if filter.Limit, err = parseNonNegative(c.Query("limit")); err != nil {
		details["limit"] = "must be a non-negative integer"
	}
	if filter.Offset, err = parseNonNegative(c.Query("offset")); err != nil {
		details["offset"] = "must be a non-negative integer"
	}
	if len(details) > 0 {
		return filter, apperrors.NewValidationError("invalid query", details)
	}
	return filter, nil
}

func parseNonNegative(val string) (int, error) {
	if val == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, strconv.ErrRange
	}
	return parsed, nil
}
