package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

type steppingClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

func seed(t *testing.T, repo *MemoryTicketRepository, tickets ...domain.Ticket) []domain.Ticket {
	t.Helper()
	out := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		ticket := tickets[i]
		require.NoError(t, repo.Create(context.Background(), &ticket))
		out = append(out, ticket)
	}
	return out
}

func ticket(title string, c domain.TicketCategory, p domain.TicketPriority, s domain.TicketStatus) domain.Ticket {
	return domain.Ticket{Title: title, Description: title + " details", Category: c, Priority: p, Status: s}
}

func TestMemoryCreateAssignsIdentity(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryTicketRepository(WithClock(func() time.Time { return start }))

	created := seed(t, repo, ticket("Refund", domain.TicketCategoryBilling, domain.TicketPriorityHigh, domain.TicketStatusOpen))

	require.Len(t, created, 1)
	assert.NotEmpty(t, created[0].ID)
	assert.Equal(t, start, created[0].CreatedAt)

	got, err := repo.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Refund", got.Title)
}

func TestMemoryGetMissing(t *testing.T) {
	repo := NewMemoryTicketRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestMemoryListFiltersAndOrder(t *testing.T) {
	clock := &steppingClock{next: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), step: time.Hour}
	repo := NewMemoryTicketRepository(WithClock(clock.Now))
	seed(t, repo,
		ticket("Invoice wrong", domain.TicketCategoryBilling, domain.TicketPriorityLow, domain.TicketStatusOpen),
		ticket("Cannot login", domain.TicketCategoryAccount, domain.TicketPriorityHigh, domain.TicketStatusOpen),
		ticket("Server down", domain.TicketCategoryTechnical, domain.TicketPriorityCritical, domain.TicketStatusClosed),
	)
	ctx := context.Background()

	all, err := repo.List(ctx, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Server down", all[0].Title)
	assert.Equal(t, "Invoice wrong", all[2].Title)

	open := domain.TicketStatusOpen
	byStatus, err := repo.List(ctx, TicketFilter{Status: &open})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	account := domain.TicketCategoryAccount
	high := domain.TicketPriorityHigh
	combined, err := repo.List(ctx, TicketFilter{Category: &account, Priority: &high})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "Cannot login", combined[0].Title)

	search := "  DOWN "
	found, err := repo.List(ctx, TicketFilter{SearchTerm: &search})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Server down", found[0].Title)

	descSearch := "invoice wrong details"
	found, err = repo.List(ctx, TicketFilter{SearchTerm: &descSearch})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	page, err := repo.List(ctx, TicketFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Cannot login", page[0].Title)

	past, err := repo.List(ctx, TicketFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryListBreaksTiesByID(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryTicketRepository(WithClock(func() time.Time { return at }))
	seed(t, repo,
		ticket("a", domain.TicketCategoryGeneral, domain.TicketPriorityLow, domain.TicketStatusOpen),
		ticket("b", domain.TicketCategoryGeneral, domain.TicketPriorityLow, domain.TicketStatusOpen),
		ticket("c", domain.TicketCategoryGeneral, domain.TicketPriorityLow, domain.TicketStatusOpen),
	)

	list, err := repo.List(context.Background(), TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[1].ID)
	assert.Greater(t, list[1].ID, list[2].ID)
}

func TestMemoryApplyPatch(t *testing.T) {
	repo := NewMemoryTicketRepository()
	created := seed(t, repo, ticket("Refund", domain.TicketCategoryBilling, domain.TicketPriorityLow, domain.TicketStatusOpen))
	id := created[0].ID

	closed := domain.TicketStatusClosed
	critical := domain.TicketPriorityCritical
	before, after, err := repo.ApplyPatch(context.Background(), id, domain.TicketPatch{Status: &closed, Priority: &critical})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, before.Status)
	assert.Equal(t, domain.TicketPriorityLow, before.Priority)
	assert.Equal(t, domain.TicketStatusClosed, after.Status)
	assert.Equal(t, domain.TicketPriorityCritical, after.Priority)
	assert.Equal(t, domain.TicketCategoryBilling, after.Category)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	_, _, err = repo.ApplyPatch(context.Background(), "missing", domain.TicketPatch{Status: &closed})
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestMemoryAggregates(t *testing.T) {
	clock := &steppingClock{next: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), step: 24 * time.Hour}
	repo := NewMemoryTicketRepository(WithClock(clock.Now))
	ctx := context.Background()

	empty, err := repo.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Total)
	assert.Nil(t, empty.FirstCreatedAt)
	assert.Nil(t, empty.LastCreatedAt)

	seed(t, repo,
		ticket("a", domain.TicketCategoryBilling, domain.TicketPriorityLow, domain.TicketStatusOpen),
		ticket("b", domain.TicketCategoryBilling, domain.TicketPriorityHigh, domain.TicketStatusResolved),
		ticket("c", domain.TicketCategoryGeneral, domain.TicketPriorityHigh, domain.TicketStatusOpen),
	)

	agg, err := repo.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), agg.Total)
	assert.Equal(t, int64(2), agg.Open)
	require.NotNil(t, agg.FirstCreatedAt)
	require.NotNil(t, agg.LastCreatedAt)
	assert.Equal(t, 48*time.Hour, agg.LastCreatedAt.Sub(*agg.FirstCreatedAt))

	byPriority, err := repo.CountByPriority(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byPriority[domain.TicketPriorityLow])
	assert.Equal(t, int64(2), byPriority[domain.TicketPriorityHigh])

	byCategory, err := repo.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byCategory[domain.TicketCategoryBilling])
	assert.Equal(t, int64(1), byCategory[domain.TicketCategoryGeneral])
}

func TestMemoryConcurrentWrites(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk := ticket("load", domain.TicketCategoryTechnical, domain.TicketPriorityMedium, domain.TicketStatusOpen)
			_ = repo.Create(ctx, &tk)
			_, _ = repo.Aggregate(ctx)
		}()
	}
	wg.Wait()

	agg, err := repo.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), agg.Total)
}
