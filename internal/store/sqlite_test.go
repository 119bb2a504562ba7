package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/chat-platform/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *SQLiteStore, username string) *model.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return user
}

func TestCreateUserDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice", "hash-a")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)

	_, err = s.CreateUser(ctx, "alice", "hash-b")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestGetUserByUsername(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "bob", "bob-hash")
	require.NoError(t, err)

	user, hash, err := s.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "bob-hash", hash)

	_, _, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationOwnership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	conv, err := s.CreateConversation(ctx, alice.ID, "title", "requirements")
	require.NoError(t, err)

	_, err = s.GetConversation(ctx, alice.ID, conv.ID)
	require.NoError(t, err)

	_, err = s.GetConversation(ctx, bob.ID, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteConversation(ctx, bob.ID, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.RenameConversation(ctx, bob.ID, conv.ID, "stolen")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendMessageOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice")
	conv, err := s.CreateConversation(ctx, user.ID, "title", "requirements")
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four"}
	for i, c := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := s.AppendMessage(ctx, conv.ID, role, c)
		require.NoError(t, err)
	}

	snapshot, err := s.GetSnapshot(ctx, user.ID, conv.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Messages, len(contents))
	for i, msg := range snapshot.Messages {
		assert.Equal(t, contents[i], msg.Content)
		if i > 0 {
			prev := snapshot.Messages[i-1]
			assert.False(t, msg.Timestamp.Before(prev.Timestamp))
			assert.Greater(t, msg.ID, prev.ID)
		}
	}

	// Appending advances the conversation clock to the newest message.
	last := snapshot.Messages[len(snapshot.Messages)-1]
	assert.False(t, snapshot.UpdatedAt.Before(last.Timestamp))
}

func TestAppendMessageMissingConversation(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AppendMessage(context.Background(), "01937d6e-0000-7000-8000-000000000000", model.RoleUser, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentMessagesWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice")
	conv, err := s.CreateConversation(ctx, user.ID, "title", "requirements")
	require.NoError(t, err)

	for _, c := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := s.AppendMessage(ctx, conv.ID, model.RoleUser, c)
		require.NoError(t, err)
	}

	msgs, err := s.RecentMessages(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m3", msgs[0].Content)
	assert.Equal(t, "m4", msgs[1].Content)
	assert.Equal(t, "m5", msgs[2].Content)
}

func TestLatestAssistantMessage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice")
	conv, err := s.CreateConversation(ctx, user.ID, "title", "requirements")
	require.NoError(t, err)

	_, err = s.LatestAssistantMessage(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AppendMessage(ctx, conv.ID, model.RoleUser, "question")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, model.RoleAssistant, "first answer")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, model.RoleUser, "follow-up")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, model.RoleAssistant, "second answer")
	require.NoError(t, err)

	msg, err := s.LatestAssistantMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "second answer", msg.Content)
	assert.Equal(t, model.RoleAssistant, msg.Role)
}

func TestDeleteConversationCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice")
	conv, err := s.CreateConversation(ctx, user.ID, "title", "requirements")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, conv.ID, model.RoleUser, "hi")
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(ctx, user.ID, conv.ID))

	_, err = s.GetConversation(ctx, user.ID, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conv.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListConversationsByScenario(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice")

	reqConv, err := s.CreateConversation(ctx, user.ID, "req", "requirements")
	require.NoError(t, err)
	_, err = s.CreateConversation(ctx, user.ID, "ops", "ops-assistant")
	require.NoError(t, err)

	convs, err := s.ListConversations(ctx, user.ID, "requirements")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, reqConv.ID, convs[0].ID)
}
