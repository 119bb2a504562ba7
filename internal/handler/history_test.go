package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/chat-platform/internal/model"
)

func TestGroupByRecency(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

	conv := func(id string, updatedAt time.Time) model.Conversation {
		return model.Conversation{ID: id, Title: id, UpdatedAt: updatedAt}
	}

	convs := []model.Conversation{
		conv("today-1", now.Add(-time.Hour)),
		conv("today-2", now.Add(-14*time.Hour)),
		conv("recent", now.AddDate(0, 0, -2)),
		conv("week", now.AddDate(0, 0, -5)),
		conv("old", now.AddDate(0, 0, -30)),
	}

	groups := groupByRecency(convs, now)
	require.Len(t, groups, 4)

	assert.Equal(t, "Today", groups[0].TimeGroup)
	require.Len(t, groups[0].Conversations, 2)
	assert.Equal(t, "today-1", groups[0].Conversations[0].ID)
	assert.Equal(t, "today-2", groups[0].Conversations[1].ID)

	assert.Equal(t, "Last 3 Days", groups[1].TimeGroup)
	assert.Equal(t, "recent", groups[1].Conversations[0].ID)

	assert.Equal(t, "Last 7 Days", groups[2].TimeGroup)
	assert.Equal(t, "week", groups[2].Conversations[0].ID)

	assert.Equal(t, "Older", groups[3].TimeGroup)
	assert.Equal(t, "old", groups[3].Conversations[0].ID)
}

func TestGroupByRecencyOmitsEmptyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

	convs := []model.Conversation{
		{ID: "a", UpdatedAt: now},
		{ID: "b", UpdatedAt: now.AddDate(0, 0, -30)},
	}

	groups := groupByRecency(convs, now)
	require.Len(t, groups, 2)
	assert.Equal(t, "Today", groups[0].TimeGroup)
	assert.Equal(t, "Older", groups[1].TimeGroup)
}

func TestGroupByRecencyEmpty(t *testing.T) {
	assert.Empty(t, groupByRecency(nil, time.Now()))
}

func TestGroupByRecencyBoundaries(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 30, 0, 0, time.UTC)

	// Bucketing is by calendar date, not elapsed hours: a conversation
	// updated late yesterday is one day old even if only an hour passed.
	groups := groupByRecency([]model.Conversation{
		{ID: "yesterday", UpdatedAt: now.Add(-time.Hour)},
	}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, "Last 3 Days", groups[0].TimeGroup)

	// Exactly three calendar days back still lands in the three-day bucket.
	groups = groupByRecency([]model.Conversation{
		{ID: "edge", UpdatedAt: now.AddDate(0, 0, -3)},
	}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, "Last 3 Days", groups[0].TimeGroup)
}
