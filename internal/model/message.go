package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single persisted chat message. Immutable once written;
// ordering key is (timestamp, id).
type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatRequest is one chat turn: a user message plus routing information.
// ConversationID is empty for the first turn of a new conversation.
type ChatRequest struct {
	Message        string `json:"message"`
	Scenario       string `json:"scenario"`
	ConversationID string `json:"conversation_id"`
}
