package model

import (
	"encoding/json"
	"fmt"
)

// DoneSentinel is the terminal marker closing every chat event stream.
const DoneSentinel = "[DONE]"

// StreamEvent is one event pushed to the client during a chat turn. It is a
// closed union: TokenEvent, FullResponseEvent, ConversationCreatedEvent and
// DoneEvent are the only implementations.
type StreamEvent interface {
	streamEvent()
}

// TokenEvent carries one incremental model text fragment.
type TokenEvent struct {
	Token string `json:"token"`
}

// FullResponseEvent carries the complete assistant response after a turn
// that ran to normal completion.
type FullResponseEvent struct {
	FullResponse   string `json:"full_response"`
	ConversationID string `json:"conversation_id"`
}

// ConversationCreatedEvent announces the id and auto-generated title of a
// conversation created by this turn.
type ConversationCreatedEvent struct {
	NewConversationID string `json:"new_conversation_id"`
	Title             string `json:"conversation_title"`
}

// DoneEvent is the terminal sentinel.
type DoneEvent struct{}

func (TokenEvent) streamEvent()               {}
func (FullResponseEvent) streamEvent()        {}
func (ConversationCreatedEvent) streamEvent() {}
func (DoneEvent) streamEvent()                {}

// EncodeSSE renders an event as a server-sent-events data line.
func EncodeSSE(ev StreamEvent) ([]byte, error) {
	if _, ok := ev.(DoneEvent); ok {
		return []byte(fmt.Sprintf("data: %s\n\n", DoneSentinel)), nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream event: %w", err)
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}
