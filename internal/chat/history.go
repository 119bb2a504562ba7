// Package chat implements the turn orchestration pipeline: conversation
// resolution, history windowing, context retrieval, prompting, token
// streaming and exactly-once persistence of the resulting exchange.
package chat

import (
	"context"
	"strings"

	"github.com/parley-ai/chat-platform/internal/model"
)

// Store is the persistence surface the orchestrator depends on.
type Store interface {
	CreateConversation(ctx context.Context, userID int64, title, scenario string) (*model.Conversation, error)
	GetConversation(ctx context.Context, userID int64, conversationID string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error)
	RecentMessages(ctx context.Context, conversationID string, n int) ([]model.Message, error)
	RenameConversation(ctx context.Context, userID int64, conversationID, title string) error
}

// Window loads the prompt history for a conversation: the n most recent
// messages oldest-first, minus the trailing entry. The trailing entry is the
// just-persisted current user message, which the prompt carries separately
// as the question. Fewer than two messages yield an empty window.
func Window(ctx context.Context, s Store, conversationID string, n int) (string, error) {
	msgs, err := s.RecentMessages(ctx, conversationID, n)
	if err != nil {
		return "", err
	}
	return FormatHistory(msgs), nil
}

// FormatHistory renders a message window, dropping the trailing entry.
func FormatHistory(msgs []model.Message) string {
	if len(msgs) < 2 {
		return ""
	}
	msgs = msgs[:len(msgs)-1]

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, roleLabel(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func roleLabel(role model.Role) string {
	if role == model.RoleUser {
		return "user"
	}
	return "assistant"
}
