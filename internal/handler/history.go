package handler

import (
	"net/http"
	"time"

	"github.com/parley-ai/chat-platform/internal/middleware"
	"github.com/parley-ai/chat-platform/internal/model"
	"github.com/parley-ai/chat-platform/internal/prompt"
	"github.com/parley-ai/chat-platform/internal/store"
	"github.com/parley-ai/chat-platform/pkg/logger"
)

// Time bucket labels, in display order.
const (
	groupToday     = "Today"
	groupLast3Days = "Last 3 Days"
	groupLast7Days = "Last 7 Days"
	groupOlder     = "Older"
)

// HistoryHandler handles the bucketed conversation listing.
type HistoryHandler struct {
	store  *store.SQLiteStore
	logger *logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(st *store.SQLiteStore, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  st,
		logger: log,
	}
}

// List handles GET /api/v1/history?scenario=
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	scenario := r.URL.Query().Get("scenario")
	if !prompt.Known(scenario) {
		writeError(w, http.StatusBadRequest, "unknown scenario")
		return
	}

	convs, err := h.store.ListConversations(ctx, userID, scenario)
	if err != nil {
		h.logger.Error("failed to list conversations")
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{
		Groups: groupByRecency(convs, time.Now()),
	})
}

// groupByRecency buckets conversations by the calendar date of their last
// activity. The input is already ordered newest first, so each bucket stays
// ordered. Empty buckets are omitted.
func groupByRecency(convs []model.Conversation, now time.Time) []model.HistoryGroup {
	today := truncateToDay(now)
	threeDaysAgo := today.AddDate(0, 0, -3)
	weekAgo := today.AddDate(0, 0, -7)

	buckets := map[string][]model.ConversationSummary{}
	for _, conv := range convs {
		summary := model.ConversationSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			UpdatedAt: conv.UpdatedAt,
		}

		day := truncateToDay(conv.UpdatedAt)
		switch {
		case day.Equal(today):
			buckets[groupToday] = append(buckets[groupToday], summary)
		case !day.Before(threeDaysAgo):
			buckets[groupLast3Days] = append(buckets[groupLast3Days], summary)
		case !day.Before(weekAgo):
			buckets[groupLast7Days] = append(buckets[groupLast7Days], summary)
		default:
			buckets[groupOlder] = append(buckets[groupOlder], summary)
		}
	}

	var groups []model.HistoryGroup
	for _, name := range []string{groupToday, groupLast3Days, groupLast7Days, groupOlder} {
		if len(buckets[name]) > 0 {
			groups = append(groups, model.HistoryGroup{
				TimeGroup:     name,
				Conversations: buckets[name],
			})
		}
	}
	return groups
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
