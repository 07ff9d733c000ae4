// Package notify adapts the external in-app notification dispatcher.
package notify

import (
	"context"
	"log/slog"

	"gatherplan/internal/domain"
)

type loggingNotifier struct {
	logger *slog.Logger
}

// NewLoggingNotifier returns a Notifier that records notifications in the
// log without an external transport. Used in development and tests.
func NewLoggingNotifier(logger *slog.Logger) domain.Notifier {
	return &loggingNotifier{logger: logger}
}

func (n *loggingNotifier) NotifyUser(ctx context.Context, userID string, payload domain.NotificationPayload) error {
	n.logger.Info("notification", "user_id", userID, "kind", payload.Kind, "event_id", payload.EventID)
	return nil
}

func (n *loggingNotifier) NotifyRole(ctx context.Context, role string, payload domain.NotificationPayload) error {
	n.logger.Info("notification", "role", role, "kind", payload.Kind, "event_id", payload.EventID)
	return nil
}

func (n *loggingNotifier) NotifyAll(ctx context.Context, payload domain.NotificationPayload) error {
	n.logger.Info("notification broadcast", "kind", payload.Kind, "event_id", payload.EventID)
	return nil
}
