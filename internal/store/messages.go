package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/parley-ai/chat-platform/internal/model"
)

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(r rowScanner) (*model.Message, error) {
	var (
		msg model.Message
		ts  int64
	)
	if err := r.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &ts); err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	msg.Timestamp = time.UnixMilli(ts)
	return &msg, nil
}

// AppendMessage persists one message and advances the conversation's
// updated_at in the same transaction, so concurrent turns on one
// conversation never observe a half-written exchange.
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	// Touch the conversation first; zero rows means it does not exist and
	// the append must not happen.
	upd, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.UnixMilli(), conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}
	if n, _ := upd.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		conversationID, role, content, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return &model.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      now,
	}, nil
}

// RecentMessages returns up to n of the newest messages for a conversation,
// in chronological order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, conversationID string, n int) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, timestamp FROM (
			SELECT id, conversation_id, role, content, timestamp
			FROM messages WHERE conversation_id = ?
			ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp ASC, id ASC`,
		conversationID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent messages: %w", err)
	}

	return msgs, nil
}

// LatestAssistantMessage returns the newest assistant message of a
// conversation, or ErrNotFound if none exists.
func (s *SQLiteStore) LatestAssistantMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	var (
		msg model.Message
		ts  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, role, content, timestamp
		 FROM messages WHERE conversation_id = ? AND role = ?
		 ORDER BY timestamp DESC, id DESC LIMIT 1`,
		conversationID, model.RoleAssistant,
	).Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &ts)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest assistant message: %w", err)
	}

	msg.Timestamp = time.UnixMilli(ts)
	return &msg, nil
}
