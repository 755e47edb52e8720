package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
)

// NotificationService turns ticket events into outbound notifications.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, cfg: cfg}
}

// Topics lists the event types the service reacts to.
func (n *NotificationService) Topics() []events.EventType {
	return []events.EventType{events.EventTicketCreated, events.EventTicketUpdated}
}

// Notify handles one ticket event. It never fails the publishing write.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	summary := Summarize(event)
	n.logger.Info("ticket notification",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("summary", summary))
	n.sendWebhookNotificationStub(ctx, event, summary)
	return nil
}

// Summarize renders a one-line description of a ticket event.
func Summarize(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("created %q [%s/%s] %s", payload.Title, payload.Category, payload.Priority, payload.Status)
	case events.TicketUpdatedPayload:
		fields := make([]string, 0, len(payload.Changes))
		for field := range payload.Changes {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			change := payload.Changes[field]
			parts = append(parts, fmt.Sprintf("%s %s -> %s", field, change.Old, change.New))
		}
		return "updated " + strings.Join(parts, ", ")
	default:
		return string(event.Type)
	}
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event, summary string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("summary", summary))
}
