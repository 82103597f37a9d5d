package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ConversationStore holds ordered per-session message logs.
//
// Appends to one session are serialised so stored order matches call order.
// Appends to different sessions must not contend.
type ConversationStore interface {
	// CreateSession registers a new empty session.
	// Returns domain.ErrAlreadyExists if the id is taken.
	CreateSession(ctx context.Context, id string) error

	// Append adds a message to a session. An unknown id creates the session.
	Append(ctx context.Context, id string, msg domain.Message) error

	// Messages returns the last max messages, oldest first.
	// A max of zero returns the full log. Unknown ids return an empty slice.
	Messages(ctx context.Context, id string, max int) ([]domain.Message, error)

	// Exists reports whether a session is known.
	Exists(ctx context.Context, id string) (bool, error)

	// Clear empties a session's log but keeps the session.
	// Returns domain.ErrNotFound for unknown ids.
	Clear(ctx context.Context, id string) error

	// DeleteSession removes a session and its messages.
	// Returns domain.ErrNotFound for unknown ids.
	DeleteSession(ctx context.Context, id string) error

	// ListSessions returns every session, oldest first.
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)

	// DeleteAll removes every session.
	DeleteAll(ctx context.Context) error
}
