package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/events"
)

// NotificationService logs domain events as they happen. The outbound
// "ticket completed" channel is driven separately by the polling loop;
// this subscriber exists for real-time operator visibility.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent("TicketCreated"))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent("TicketStatusChanged"))
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleEvent("TicketAssigned"))
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleEvent("CommentAdded"))
}

func (n *NotificationService) handleEvent(name string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("ticket", event.TicketNumber),
			zap.String("actor", event.ActorEmail),
			zap.Any("payload", event.Payload))
		return nil
	}
}
