package worker

import (
	"go.uber.org/zap"

	"github.com/ticketbooth/eventpass/internal/events"
	"github.com/ticketbooth/eventpass/internal/service"
)

// StartNotificationWorker subscribes the notifier to account and purchase
// events. Handlers run synchronously on the publishing request.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := service.NewNotificationService(dispatcher, logger.Named("notifications"))
	notifier.RegisterHandlers()
	return notifier
}
