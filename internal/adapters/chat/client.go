// Package chat adapts the external chat collaborator. The real transport
// lives in another service; this process only needs the port.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"gatherplan/internal/domain"
)

type loggingChat struct {
	logger *slog.Logger
}

// NewLoggingChat returns a ChatService that records conversation operations
// in the log without an external transport. Used in development and tests.
func NewLoggingChat(logger *slog.Logger) domain.ChatService {
	return &loggingChat{logger: logger}
}

func (c *loggingChat) EnsureConversation(ctx context.Context, eventID string, participantIDs []string) (string, error) {
	conversationID := fmt.Sprintf("conv-%s", uuid.NewString())
	c.logger.Info("conversation ensured", "event_id", eventID, "conversation_id", conversationID, "members", len(participantIDs))
	return conversationID, nil
}

func (c *loggingChat) AddParticipants(ctx context.Context, conversationID string, userIDs []string) error {
	c.logger.Info("conversation members added", "conversation_id", conversationID, "members", len(userIDs))
	return nil
}

func (c *loggingChat) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	c.logger.Info("conversation member removed", "conversation_id", conversationID, "user_id", userID)
	return nil
}
