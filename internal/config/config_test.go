package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "data/chat.db", cfg.DBPath)
	assert.Equal(t, "data/rag.db", cfg.RAGDBPath)
	assert.Equal(t, 7, cfg.HistoryWindow)
	assert.Equal(t, 3, cfg.RetrievalK)
	assert.Equal(t, 120*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.PacingDelay)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Empty(t, cfg.NATSURL)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("HISTORY_WINDOW", "11")
	t.Setenv("TURN_TIMEOUT", "45s")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg := Load()

	assert.Equal(t, "9999", cfg.ServerPort)
	assert.Equal(t, 11, cfg.HistoryWindow)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HISTORY_WINDOW", "lots")
	t.Setenv("TURN_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 7, cfg.HistoryWindow)
	assert.Equal(t, 120*time.Second, cfg.TurnTimeout)
}
