package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/chat-platform/internal/chat"
	"github.com/parley-ai/chat-platform/internal/llm"
	"github.com/parley-ai/chat-platform/internal/middleware"
	"github.com/parley-ai/chat-platform/internal/model"
	"github.com/parley-ai/chat-platform/internal/prompt"
	"github.com/parley-ai/chat-platform/internal/store"
	"github.com/parley-ai/chat-platform/pkg/logger"
)

type stubStore struct {
	conv     *model.Conversation
	messages []model.Message
	nextID   int64
	renamed  map[string]string
}

func (s *stubStore) CreateConversation(_ context.Context, userID int64, title, scenario string) (*model.Conversation, error) {
	s.conv = &model.Conversation{ID: "01937d6e-0000-7000-8000-000000000001", UserID: userID, Title: title, Scenario: scenario}
	return s.conv, nil
}

func (s *stubStore) GetConversation(_ context.Context, userID int64, conversationID string) (*model.Conversation, error) {
	if s.conv != nil && s.conv.ID == conversationID && s.conv.UserID == userID {
		return s.conv, nil
	}
	return nil, store.ErrNotFound
}

func (s *stubStore) AppendMessage(_ context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	s.nextID++
	msg := model.Message{ID: s.nextID, ConversationID: conversationID, Role: role, Content: content}
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *stubStore) RecentMessages(_ context.Context, _ string, n int) ([]model.Message, error) {
	if len(s.messages) <= n {
		return s.messages, nil
	}
	return s.messages[len(s.messages)-n:], nil
}

func (s *stubStore) RenameConversation(_ context.Context, _ int64, conversationID, title string) error {
	if s.renamed == nil {
		s.renamed = map[string]string{}
	}
	s.renamed[conversationID] = title
	return nil
}

type stubModel struct {
	tokens []string
	title  string
}

func (m *stubModel) Stream(_ context.Context, _ string, fn llm.TokenFunc) error {
	for _, tok := range m.tokens {
		if err := fn(tok); err != nil {
			return err
		}
	}
	return nil
}

func (m *stubModel) Complete(context.Context, string) (string, error) { return m.title, nil }

func (m *stubModel) Name() string { return "stub" }

func newChatRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(42))
	return req.WithContext(ctx)
}

func newTestChatHandler(st chat.Store, m llm.Client) *ChatHandler {
	orch := chat.NewOrchestrator(st, nil, prompt.NewBuilder(), m, nil, logger.NewNop(), chat.Options{})
	return NewChatHandler(orch, logger.NewNop())
}

func TestChatStreamsSSE(t *testing.T) {
	st := &stubStore{}
	h := newTestChatHandler(st, &stubModel{tokens: []string{"Hello ", "world"}, title: "Greeting"})

	rec := httptest.NewRecorder()
	h.Chat(rec, newChatRequest(t, `{"message":"hi there","scenario":"requirements"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"token":"Hello "}`)
	assert.Contains(t, body, `data: {"token":"world"}`)
	assert.Contains(t, body, `"full_response":"Hello world"`)
	assert.Contains(t, body, `"new_conversation_id"`)
	assert.Contains(t, body, `"conversation_title":"Greeting"`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))

	require.NotNil(t, st.conv)
	assert.Equal(t, "Greeting", st.renamed[st.conv.ID])
}

func TestChatUnknownScenarioIsJSONError(t *testing.T) {
	h := newTestChatHandler(&stubStore{}, &stubModel{tokens: []string{"x"}})

	rec := httptest.NewRecorder()
	h.Chat(rec, newChatRequest(t, `{"message":"hi","scenario":"poetry"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "unknown scenario")
}

func TestChatMissingConversationIs404(t *testing.T) {
	h := newTestChatHandler(&stubStore{}, &stubModel{tokens: []string{"x"}})

	rec := httptest.NewRecorder()
	h.Chat(rec, newChatRequest(t,
		`{"message":"hi","scenario":"requirements","conversation_id":"01937d6e-0000-7000-8000-00000000dead"}`))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEmptyMessageRejected(t *testing.T) {
	h := newTestChatHandler(&stubStore{}, &stubModel{})

	rec := httptest.NewRecorder()
	h.Chat(rec, newChatRequest(t, `{"message":"","scenario":"requirements"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
