package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/repository"
)

func TestNotificationServiceHandlesTicketEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	notifications := NewNotificationService(logger, config.NotificationConfig{WebhookURL: "http://hooks.local/tickets"})
	for _, topic := range notifications.Topics() {
		dispatcher.Subscribe(topic, notifications.Notify)
	}

	svc := NewTicketService(TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticket, err := svc.CreateTicket(context.Background(), validCreate())
	require.NoError(t, err)
	_, err = svc.PatchTicket(context.Background(), ticket.ID, TicketPatchInput{Priority: strPtr("critical")})
	require.NoError(t, err)

	entries := logs.FilterMessage("ticket notification").All()
	require.Len(t, entries, 2)
	assert.Equal(t, `created "Card declined" [billing/high] open`, entries[0].ContextMap()["summary"])
	assert.Equal(t, "updated priority high -> critical", entries[1].ContextMap()["summary"])
	assert.Equal(t, 2, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationServiceSkipsWebhookWithoutURL(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	err := NewNotificationService(zap.New(core), config.NotificationConfig{}).
		Notify(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("ticket notification").Len())
	assert.Zero(t, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestSummarizeOrdersChanges(t *testing.T) {
	got := Summarize(events.Event{
		Type: events.EventTicketUpdated,
		Payload: events.TicketUpdatedPayload{Changes: map[string]events.FieldChange{
			"status":   {Old: string(domain.TicketStatusOpen), New: string(domain.TicketStatusClosed)},
			"category": {Old: "general", New: "billing"},
		}},
	})
	assert.Equal(t, "updated category general -> billing, status open -> closed", got)
	assert.Equal(t, "ticket_created", Summarize(events.Event{Type: events.EventTicketCreated}))
}

func TestClassificationLogsOutcomeLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewClassificationService(nil, WithClassificationLogger(zap.New(core)))

	svc.Classify(context.Background(), "")
	svc.Classify(context.Background(), "anything")

	entries := logs.FilterMessage("ticket classification").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "no_input", entries[0].ContextMap()["outcome"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "credential_missing", entries[1].ContextMap()["outcome"])
}
