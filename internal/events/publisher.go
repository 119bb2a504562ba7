package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TurnEventType classifies turn lifecycle events.
type TurnEventType string

const (
	TurnCompleted       TurnEventType = "turn.completed"
	TurnCancelled       TurnEventType = "turn.cancelled"
	TurnModelFailed     TurnEventType = "turn.model_failed"
	ConversationTitled  TurnEventType = "conversation.titled"
	ConversationDeleted TurnEventType = "conversation.deleted"
)

// TurnEvent is one lifecycle event of a chat turn.
type TurnEvent struct {
	Type           TurnEventType `json:"type"`
	UserID         int64         `json:"user_id"`
	ConversationID string        `json:"conversation_id"`
	Scenario       string        `json:"scenario"`
	Tokens         int           `json:"tokens,omitempty"`
	Title          string        `json:"title,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Publisher publishes turn events. A nil Publisher is valid and drops
// everything, so event publishing can be disabled by configuration.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over a connected client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Subject returns the JetStream subject for an event.
func Subject(ev *TurnEvent) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, ev.ConversationID, ev.Type)
}

// Publish sends one event to JetStream.
func (p *Publisher) Publish(ctx context.Context, ev *TurnEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}

	if _, err := p.client.js.Publish(ctx, Subject(ev), data); err != nil {
		return fmt.Errorf("failed to publish turn event: %w", err)
	}
	return nil
}
