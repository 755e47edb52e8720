package domain

import (
	"errors"
	"time"
)

// TicketCategory enumerates the routing bucket of a ticket.
type TicketCategory string

const (
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryAccount   TicketCategory = "account"
	TicketCategoryGeneral   TicketCategory = "general"
)

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TitleMaxLength bounds the ticket title.
const TitleMaxLength = 200

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	CreatedAt   time.Time
}

// TicketPatch carries the only fields a ticket accepts after creation.
// A nil field is left untouched.
type TicketPatch struct {
	Status   *TicketStatus
	Category *TicketCategory
	Priority *TicketPriority
}

// IsEmpty reports whether the patch would change nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Status == nil && p.Category == nil && p.Priority == nil
}

// ErrTicketNotFound is returned by stores when no ticket has the given id.
var ErrTicketNotFound = errors.New("ticket not found")
