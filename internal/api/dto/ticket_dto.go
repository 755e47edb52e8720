package dto

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// CreateTicketRequest payload. Status is optional and defaults to open.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// PatchTicketRequest holds the updatable fields. Any other key in the body
// is dropped during decoding.
type PatchTicketRequest struct {
	Status   *string `json:"status"`
	Category *string `json:"category"`
	Priority *string `json:"priority"`
}

// TicketResponse is the public ticket representation.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

// StatsResponse mirrors domain.StatsReport with string keys.
type StatsResponse struct {
	TotalTickets      int64            `json:"total_tickets"`
	OpenTickets       int64            `json:"open_tickets"`
	AvgTicketsPerDay  float64          `json:"avg_tickets_per_day"`
	PriorityBreakdown map[string]int64 `json:"priority_breakdown"`
	CategoryBreakdown map[string]int64 `json:"category_breakdown"`
}

// ClassifyRequest payload.
type ClassifyRequest struct {
	Description string `json:"description"`
}

// ClassifyResponse carries the suggestion.
type ClassifyResponse struct {
	SuggestedCategory domain.TicketCategory `json:"suggested_category"`
	SuggestedPriority domain.TicketPriority `json:"suggested_priority"`
}

// NewTicketResponse converts a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
	}
}

// NewStatsResponse converts a report.
func NewStatsResponse(report *domain.StatsReport) StatsResponse {
	resp := StatsResponse{
		TotalTickets:      report.TotalTickets,
		OpenTickets:       report.OpenTickets,
		AvgTicketsPerDay:  report.AvgTicketsPerDay,
		PriorityBreakdown: make(map[string]int64, len(report.PriorityBreakdown)),
		CategoryBreakdown: make(map[string]int64, len(report.CategoryBreakdown)),
	}
	for k, v := range report.PriorityBreakdown {
		resp.PriorityBreakdown[string(k)] = v
	}
	for k, v := range report.CategoryBreakdown {
		resp.CategoryBreakdown[string(k)] = v
	}
	return resp
}
