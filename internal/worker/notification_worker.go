package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/service"
)

// StartNotificationWorker subscribes the notification service to every topic
// it handles. Delivery is synchronous with the publishing write.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger) {
	if dispatcher == nil || notifications == nil {
		return
	}
	topics := notifications.Topics()
	for _, topic := range topics {
		dispatcher.Subscribe(topic, notifications.Notify)
	}
	logger.Info("notification worker started", zap.Int("topics", len(topics)))
}
