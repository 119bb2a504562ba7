package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/parley-ai/chat-platform/internal/export"
	"github.com/parley-ai/chat-platform/internal/middleware"
	"github.com/parley-ai/chat-platform/internal/store"
	"github.com/parley-ai/chat-platform/pkg/logger"
)

// ExportHandler handles markdown table export.
type ExportHandler struct {
	store  *store.SQLiteStore
	logger *logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(st *store.SQLiteStore, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		store:  st,
		logger: log,
	}
}

// TestCases handles GET /api/v1/export/testcases?conversation_id=
//
// It extracts the first markdown table from the newest assistant message of
// the conversation and returns it as a CSV attachment.
func (h *ExportHandler) TestCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	conversationID := r.URL.Query().Get("conversation_id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Ownership check before touching messages.
	if _, err := h.store.GetConversation(ctx, userID, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to load conversation")
		writeError(w, http.StatusInternalServerError, "failed to export test cases")
		return
	}

	msg, err := h.store.LatestAssistantMessage(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no assistant reply to export")
			return
		}
		h.logger.Error("failed to load assistant message")
		writeError(w, http.StatusInternalServerError, "failed to export test cases")
		return
	}

	table, err := export.ExtractTable(msg.Content)
	if err != nil {
		if errors.Is(err, export.ErrNoTable) {
			writeError(w, http.StatusNotFound, "no table found in the latest reply")
			return
		}
		h.logger.Error("failed to extract table")
		writeError(w, http.StatusInternalServerError, "failed to export test cases")
		return
	}

	filename := fmt.Sprintf("testcases_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	if err := export.WriteCSV(w, table); err != nil {
		h.logger.Error("failed to write csv")
	}
}
