package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory. It backs the
// service when no Postgres DSN is configured and is used throughout tests.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	now     func() time.Time
}

// MemoryOption configures a MemoryTicketRepository.
type MemoryOption func(*MemoryTicketRepository)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryTicketRepository) { r.now = now }
}

// NewMemoryTicketRepository returns an empty in-memory repository.
func NewMemoryTicketRepository(opts ...MemoryOption) *MemoryTicketRepository {
	r := &MemoryTicketRepository{
		tickets: make(map[string]domain.Ticket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket.ID = uuid.NewString()
	ticket.CreatedAt = r.now().UTC()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return &ticket, nil
}

func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if matches(ticket, filter) {
			result = append(result, ticket)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []domain.Ticket{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryTicketRepository) ApplyPatch(_ context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, *domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before, ok := r.tickets[id]
	if !ok {
		return nil, nil, domain.ErrTicketNotFound
	}
	after := before
	if patch.Status != nil {
		after.Status = *patch.Status
	}
	if patch.Category != nil {
		after.Category = *patch.Category
	}
	if patch.Priority != nil {
		after.Priority = *patch.Priority
	}
	r.tickets[id] = after
	return &before, &after, nil
}

func (r *MemoryTicketRepository) Aggregate(_ context.Context) (TicketAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var agg TicketAggregate
	for _, ticket := range r.tickets {
		agg.Total++
		if ticket.Status == domain.TicketStatusOpen {
			agg.Open++
		}
		created := ticket.CreatedAt
		if agg.FirstCreatedAt == nil || created.Before(*agg.FirstCreatedAt) {
			agg.FirstCreatedAt = &created
		}
		if agg.LastCreatedAt == nil || created.After(*agg.LastCreatedAt) {
			agg.LastCreatedAt = &created
		}
	}
	return agg, nil
}

func (r *MemoryTicketRepository) CountByPriority(_ context.Context) (map[domain.TicketPriority]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.TicketPriority]int64)
	for _, ticket := range r.tickets {
		out[ticket.Priority]++
	}
	return out, nil
}

func (r *MemoryTicketRepository) CountByCategory(_ context.Context) (map[domain.TicketCategory]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.TicketCategory]int64)
	for _, ticket := range r.tickets {
		out[ticket.Category]++
	}
	return out, nil
}

func matches(ticket domain.Ticket, filter TicketFilter) bool {
	if filter.Category != nil && ticket.Category != *filter.Category {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(ticket.Title), term) &&
			!strings.Contains(strings.ToLower(ticket.Description), term) {
			return false
		}
	}
	return true
}
