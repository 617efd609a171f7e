package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-service/internal/events"
)

// NotificationService logs domain events for downstream delivery. Email and
// webhook delivery are stubbed; the subscription wiring is what matters here.
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
	n.dispatcher.Subscribe(events.EventCaseCreated, n.handleCaseEvent)
	n.dispatcher.Subscribe(events.EventCaseAssigned, n.handleCaseEvent)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleCaseEvent)
	n.dispatcher.Subscribe(events.EventCaseNoteAdded, n.handleCaseEvent)
	n.dispatcher.Subscribe(events.EventUserLocked, n.handleUserLocked)
}

func (n *NotificationService) handleCaseEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("case event",
		zap.String("type", string(event.Type)),
		zap.String("case_id", event.CaseID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleUserLocked(ctx context.Context, event events.Event) error {
	n.logger.Warn("account locked",
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}
