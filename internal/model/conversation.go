package model

import (
	"time"
)

// PlaceholderTitle is the title a conversation carries until the first turn
// completes and an auto-generated title replaces it.
const PlaceholderTitle = "New Conversation"

// Conversation is a snapshot of a conversation row. Messages are loaded
// explicitly by the store, never lazily.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Scenario  string    `json:"scenario"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSnapshot is a conversation together with its full message list
// in chronological order.
type ConversationSnapshot struct {
	Conversation
	Messages []Message `json:"messages"`
}

// ConversationSummary is the listing shape used by the history endpoint.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryGroup is one time bucket of conversation summaries.
type HistoryGroup struct {
	TimeGroup     string                `json:"time_group"`
	Conversations []ConversationSummary `json:"conversations"`
}

// HistoryResponse is the bucketed history listing.
type HistoryResponse struct {
	Groups []HistoryGroup `json:"groups"`
}

// NewConversationRequest is the request for an explicit new conversation.
type NewConversationRequest struct {
	Scenario string `json:"scenario"`
}

// NewConversationResponse announces the created conversation.
type NewConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

// RenameConversationRequest is the request to rename a conversation.
type RenameConversationRequest struct {
	Title string `json:"title"`
}
