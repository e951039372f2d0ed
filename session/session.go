// Package session stores in-progress purchase-order conversations keyed by
// chat user id. A session is created when a user starts the flow and deleted
// when the flow ends.
package session

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/procure/conversation"
)

var (
	// ErrNotFound is returned by Get when the user has no active session.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidUser is returned for an empty user id or a session without one.
	ErrInvalidUser = errors.New("invalid user id")

	// ErrUnknownBackend is returned by New for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown session backend")
)

// Store maps user ids to conversation sessions. Implementations must be safe
// for concurrent use and must not share mutable state with callers.
type Store interface {
	// Get returns a copy of the user's session or ErrNotFound.
	Get(ctx context.Context, userID string) (*conversation.Session, error)
	// Save stores a copy of the session under its UserID.
	Save(ctx context.Context, s *conversation.Session) error
	// Delete removes the user's session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error
}
