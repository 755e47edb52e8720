package events

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Category domain.TicketCategory `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
	Status   domain.TicketStatus   `json:"status"`
}

// FieldChange records one patched field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// TicketUpdatedPayload lists only the fields whose value changed.
type TicketUpdatedPayload struct {
	Changes map[string]FieldChange `json:"changes"`
}
