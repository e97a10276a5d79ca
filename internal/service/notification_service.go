package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ticketbooth/eventpass/internal/events"
)

// NotificationService records account and purchase activity.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n == nil || n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventUserUpdated, n.handleUserUpdated)
	n.dispatcher.Subscribe(events.EventUserDeleted, n.handleUserDeleted)
	n.dispatcher.Subscribe(events.EventTicketPurchased, n.handleTicketPurchased)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("username", event.Subject))
	return nil
}

func (n *NotificationService) handleUserUpdated(_ context.Context, event events.Event) error {
	n.logger.Info("UserUpdated", zap.String("username", event.Subject))
	return nil
}

func (n *NotificationService) handleUserDeleted(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("username", event.Subject)}
	if payload, ok := event.Payload.(events.UserDeletedPayload); ok {
		fields = append(fields, zap.Int("tickets_removed", payload.TicketsRemoved))
	}
	n.logger.Info("UserDeleted", fields...)
	return nil
}

func (n *NotificationService) handleTicketPurchased(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("email", event.Subject)}
	if payload, ok := event.Payload.(events.TicketPurchasedPayload); ok {
		fields = append(fields, zap.String("ticket_id", payload.TicketID), zap.String("type", payload.Type))
	}
	n.logger.Info("TicketPurchased", fields...)
	return nil
}
