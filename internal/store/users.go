package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/parley-ai/chat-platform/internal/model"
)

// CreateUser registers a new user with an already-hashed credential.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	now := time.Now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	return &model.User{ID: id, Username: username, CreatedAt: now}, nil
}

// GetUserByUsername looks up a user and its stored credential hash.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*model.User, string, error) {
	var (
		user      model.User
		hash      string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &hash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query user: %w", err)
	}

	user.CreatedAt = time.UnixMilli(createdAt)
	return &user, hash, nil
}
