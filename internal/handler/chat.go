package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parley-ai/chat-platform/internal/chat"
	"github.com/parley-ai/chat-platform/internal/middleware"
	"github.com/parley-ai/chat-platform/internal/model"
	"github.com/parley-ai/chat-platform/internal/prompt"
	"github.com/parley-ai/chat-platform/internal/store"
	"github.com/parley-ai/chat-platform/pkg/logger"
	"github.com/parley-ai/chat-platform/pkg/metrics"
)

// ChatHandler handles the streaming chat endpoint.
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	logger       *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orch *chat.Orchestrator, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orch,
		logger:       log,
	}
}

// Chat handles POST /api/v1/chat
//
// The response is a data-only SSE stream. Errors detected before the first
// event are reported as a JSON status; once streaming has begun the turn
// finishes through the stream itself.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// SSE headers go out with the first event, so pre-stream failures can
	// still return a plain JSON status.
	streaming := false
	sink := func(ev model.StreamEvent) error {
		if !streaming {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
			streaming = true
		}
		frame, err := model.EncodeSSE(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := h.orchestrator.RunTurn(ctx, userID, req, sink); err != nil {
		if streaming {
			h.logger.Warn("turn ended with error after streaming began")
			return
		}
		switch {
		case errors.Is(err, prompt.ErrUnknownScenario):
			writeError(w, http.StatusInternalServerError, "unknown scenario")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		default:
			h.logger.Error("turn failed before streaming")
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
	}
}
