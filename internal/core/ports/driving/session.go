package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SessionService manages conversation sessions.
type SessionService interface {
	// Create starts a new empty session and returns its id.
	Create(ctx context.Context) (string, error)

	// Append adds a message. Unknown ids create the session.
	Append(ctx context.Context, sessionID string, role domain.Role, content string) error

	// History returns the last max messages, oldest first. Zero returns all.
	// Unknown ids return an empty history.
	History(ctx context.Context, sessionID string, max int) ([]domain.Message, error)

	// RenderForPrompt formats the last max messages as a transcript.
	// Unknown ids return an empty string.
	RenderForPrompt(ctx context.Context, sessionID string, max int) (string, error)

	// Clear empties a session's history.
	Clear(ctx context.Context, sessionID string) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns every session.
	List(ctx context.Context) ([]domain.SessionSummary, error)
}
