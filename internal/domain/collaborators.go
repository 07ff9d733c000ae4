package domain

import "context"

// NotificationPayload is the in-app notification content.
type NotificationPayload struct {
	Kind    string `json:"kind"`
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// Notifier dispatches in-app notifications. Fire-and-forget from this
// service's perspective; failures are logged, never propagated.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, payload NotificationPayload) error
	NotifyRole(ctx context.Context, role string, payload NotificationPayload) error
	NotifyAll(ctx context.Context, payload NotificationPayload) error
}

// ChatService is the external chat collaborator owning group conversations.
type ChatService interface {
	// EnsureConversation returns the event's conversation, creating it with
	// the given members when absent.
	EnsureConversation(ctx context.Context, eventID string, participantIDs []string) (conversationID string, err error)
	AddParticipants(ctx context.Context, conversationID string, userIDs []string) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
}
