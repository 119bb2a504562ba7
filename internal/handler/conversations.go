package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parley-ai/chat-platform/internal/events"
	"github.com/parley-ai/chat-platform/internal/middleware"
	"github.com/parley-ai/chat-platform/internal/model"
	"github.com/parley-ai/chat-platform/internal/prompt"
	"github.com/parley-ai/chat-platform/internal/store"
	"github.com/parley-ai/chat-platform/pkg/logger"
	"github.com/parley-ai/chat-platform/pkg/metrics"
)

// welcomeMessage opens every explicitly created conversation.
const welcomeMessage = "Hello! I'm your assistant. How can I help you today?"

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	store     *store.SQLiteStore
	publisher *events.Publisher
	logger    *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(st *store.SQLiteStore, publisher *events.Publisher, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		store:     st,
		publisher: publisher,
		logger:    log,
	}
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.NewConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !prompt.Known(req.Scenario) {
		writeError(w, http.StatusBadRequest, "unknown scenario")
		return
	}

	title := fmt.Sprintf("%s %s", model.PlaceholderTitle, time.Now().Format("15:04"))
	conv, err := h.store.CreateConversation(ctx, userID, title, req.Scenario)
	if err != nil {
		h.logger.Error("failed to create conversation")
		writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	if _, err := h.store.AppendMessage(ctx, conv.ID, model.RoleAssistant, welcomeMessage); err != nil {
		h.logger.Error("failed to append welcome message")
		writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	metrics.ConversationsTotal.WithLabelValues(req.Scenario).Inc()

	writeJSON(w, http.StatusCreated, model.NewConversationResponse{
		ConversationID: conv.ID,
		Title:          conv.Title,
	})
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.store.GetSnapshot(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to load conversation")
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteConversation(ctx, userID, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to delete conversation")
		writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}

	if err := h.publisher.Publish(ctx, &events.TurnEvent{
		Type:           events.ConversationDeleted,
		UserID:         userID,
		ConversationID: conversationID,
	}); err != nil {
		h.logger.Warn("failed to publish delete event")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Rename handles POST /api/v1/conversations/{id}/rename
func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.RenameConversation(ctx, userID, conversationID, req.Title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to rename conversation")
		writeError(w, http.StatusInternalServerError, "failed to rename conversation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed", "title": req.Title})
}
