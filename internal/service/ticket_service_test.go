package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event{}, r.events...)
}

func newTicketService(t *testing.T) (*TicketService, *recorder) {
	t.Helper()
	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, rec.handle)
	dispatcher.Subscribe(events.EventTicketUpdated, rec.handle)
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: dispatcher,
	})
	return svc, rec
}

func strPtr(s string) *string { return &s }

func validCreate() TicketCreateInput {
	return TicketCreateInput{
		Title:       "Card declined",
		Description: "My card was declined at checkout",
		Category:    "billing",
		Priority:    "high",
	}
}

func TestCreateTicketDefaultsStatus(t *testing.T) {
	svc, rec := newTicketService(t)

	ticket, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.False(t, ticket.CreatedAt.IsZero())

	published := rec.all()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTicketCreated, published[0].Type)
	assert.Equal(t, ticket.ID, published[0].TicketID)
	assert.NotEmpty(t, published[0].ID)
}

func TestCreateTicketTrimsInput(t *testing.T) {
	svc, _ := newTicketService(t)
	input := validCreate()
	input.Title = "  Card declined  "
	input.Status = "in_progress"

	ticket, err := svc.CreateTicket(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Card declined", ticket.Title)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}

func TestCreateTicketValidation(t *testing.T) {
	long := make([]rune, domain.TitleMaxLength+1)
	for i := range long {
		long[i] = 'é'
	}
	cases := []struct {
		name   string
		mutate func(*TicketCreateInput)
		field  string
	}{
		{"missing title", func(in *TicketCreateInput) { in.Title = "  " }, "title"},
		{"long title", func(in *TicketCreateInput) { in.Title = string(long) }, "title"},
		{"missing description", func(in *TicketCreateInput) { in.Description = "" }, "description"},
		{"bad category", func(in *TicketCreateInput) { in.Category = "shipping" }, "category"},
		{"bad priority", func(in *TicketCreateInput) { in.Priority = "urgent" }, "priority"},
		{"bad status", func(in *TicketCreateInput) { in.Status = "pending" }, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, rec := newTicketService(t)
			input := validCreate()
			tc.mutate(&input)

			_, err := svc.CreateTicket(context.Background(), input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			var de *apperrors.DomainError
			require.True(t, errors.As(err, &de))
			assert.Contains(t, de.Details, tc.field)
			assert.Empty(t, rec.all())
		})
	}
}

func TestTitleAtLimitIsAccepted(t *testing.T) {
	svc, _ := newTicketService(t)
	input := validCreate()
	title := make([]rune, domain.TitleMaxLength)
	for i := range title {
		title[i] = 'a'
	}
	input.Title = string(title)

	_, err := svc.CreateTicket(context.Background(), input)
	require.NoError(t, err)
}

func TestGetTicket(t *testing.T) {
	svc, _ := newTicketService(t)
	created, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)

	got, err := svc.GetTicket(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	_, err = svc.GetTicket(context.Background(), "not-a-uuid")
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)

	_, err = svc.GetTicket(context.Background(), "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestListTicketsFilters(t *testing.T) {
	svc, _ := newTicketService(t)
	ctx := context.Background()
	for _, in := range []TicketCreateInput{
		{Title: "Refund", Description: "refund my order", Category: "billing", Priority: "low"},
		{Title: "Outage", Description: "API returns 500", Category: "technical", Priority: "critical"},
		{Title: "Login", Description: "cannot log in", Category: "account", Priority: "medium", Status: "resolved"},
	} {
		_, err := svc.CreateTicket(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.ListTickets(ctx, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	open, err := svc.ListTickets(ctx, TicketListFilter{Status: "open"})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	search, err := svc.ListTickets(ctx, TicketListFilter{Search: "  api "})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Outage", search[0].Title)

	_, err = svc.ListTickets(ctx, TicketListFilter{Priority: "urgent"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestPatchTicketRejectsEmptyPatch(t *testing.T) {
	svc, rec := newTicketService(t)
	created, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.PatchTicket(context.Background(), created.ID, TicketPatchInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "nothing to update", apperrors.ToDomainError(err).Message)
	assert.Len(t, rec.all(), 1)

	got, err := svc.GetTicket(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

func TestPatchTicketAppliesSuppliedFields(t *testing.T) {
	svc, rec := newTicketService(t)
	created, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)

	updated, err := svc.PatchTicket(context.Background(), created.ID, TicketPatchInput{Status: strPtr("resolved")})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.Priority, updated.Priority)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	published := rec.all()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTicketUpdated, published[1].Type)
	payload, ok := published[1].Payload.(events.TicketUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, events.FieldChange{Old: "open", New: "resolved"}, payload.Changes["status"])
	assert.Len(t, payload.Changes, 1)
}

func TestPatchTicketIsAllOrNothing(t *testing.T) {
	svc, _ := newTicketService(t)
	created, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.PatchTicket(context.Background(), created.ID, TicketPatchInput{
		Status:   strPtr("closed"),
		Priority: strPtr("urgent"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	got, err := svc.GetTicket(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
	assert.Equal(t, domain.TicketPriorityHigh, got.Priority)
}

func TestPatchTicketNoChangeSkipsEvent(t *testing.T) {
	svc, rec := newTicketService(t)
	created, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.PatchTicket(context.Background(), created.ID, TicketPatchInput{Category: strPtr("billing")})
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}

func TestPatchTicketMissing(t *testing.T) {
	svc, _ := newTicketService(t)

	_, err := svc.PatchTicket(context.Background(), "1b4e28ba-2fa1-11d2-883f-0016d3cca427", TicketPatchInput{Status: strPtr("closed")})
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)

	_, err = svc.PatchTicket(context.Background(), "nope", TicketPatchInput{Status: strPtr("closed")})
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestEventHandlerFailureDoesNotFailWrite(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		return errors.New("webhook down")
	})
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: dispatcher,
	})

	ticket, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ticket.CreatedAt, time.Minute)
}
