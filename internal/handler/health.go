package handler

import (
	"net/http"

	"github.com/parley-ai/chat-platform/internal/events"
	"github.com/parley-ai/chat-platform/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store       *store.SQLiteStore
	eventClient *events.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st *store.SQLiteStore, eventClient *events.Client) *HealthHandler {
	return &HealthHandler{
		store:       st,
		eventClient: eventClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	// Events are optional. Report degraded only when configured and down.
	if h.eventClient != nil && !h.eventClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "event stream not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
