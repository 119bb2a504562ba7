// Package store provides SQLite-backed persistence for users, conversations
// and messages. All operations return detached snapshots; nothing holds a
// live row handle.
package store

import (
	"errors"
)

var (
	// ErrNotFound is returned when a conversation, message or user does not
	// exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUser is returned when a username is already registered.
	ErrDuplicateUser = errors.New("username already registered")
)
