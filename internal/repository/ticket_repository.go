package repository

import (
	"context"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TicketFilter captures list parameters. Nil fields do not constrain.
type TicketFilter struct {
	Category   *domain.TicketCategory
	Priority   *domain.TicketPriority
	Status     *domain.TicketStatus
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketAggregate holds the scalar aggregates of the whole collection,
// computed together in one read.
type TicketAggregate struct {
	Total          int64
	Open           int64
	FirstCreatedAt *time.Time
	LastCreatedAt  *time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create stores a ticket and fills in ID and CreatedAt.
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns tickets newest first; ties on created_at are broken by id.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ApplyPatch sets every non-nil patch field in a single atomic write and
	// returns the ticket as it was before and after.
	ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) (before, after *domain.Ticket, err error)
	Aggregate(ctx context.Context) (TicketAggregate, error)
	CountByPriority(ctx context.Context) (map[domain.TicketPriority]int64, error)
	CountByCategory(ctx context.Context) (map[domain.TicketCategory]int64, error)
}
