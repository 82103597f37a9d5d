package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// DefaultPromptHistory is the number of recent messages rendered into prompts.
const DefaultPromptHistory = 5

// SessionService manages conversation sessions.
type SessionService struct {
	store driven.ConversationStore
	now   func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(store driven.ConversationStore) *SessionService {
	return &SessionService{
		store: store,
		now:   time.Now,
	}
}

// Create starts a new empty session with a random id.
func (s *SessionService) Create(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", domain.ErrNotImplemented
	}
	id := uuid.New().String()
	if err := s.store.CreateSession(ctx, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Append records a message. Appending to an unknown session creates it.
func (s *SessionService) Append(ctx context.Context, sessionID string, role domain.Role, content string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	return s.store.Append(ctx, sessionID, domain.Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
}

// History returns the most recent max messages, oldest first. A max of zero
// returns the whole log. Unknown sessions yield an empty history.
func (s *SessionService) History(ctx context.Context, sessionID string, max int) ([]domain.Message, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	if sessionID == "" {
		return []domain.Message{}, nil
	}
	return s.store.Messages(ctx, sessionID, max)
}

// RenderForPrompt formats recent history as "Human: ..." and
// "Assistant: ..." blocks separated by blank lines.
func (s *SessionService) RenderForPrompt(ctx context.Context, sessionID string, max int) (string, error) {
	if max <= 0 {
		max = DefaultPromptHistory
	}
	msgs, err := s.History(ctx, sessionID, max)
	if err != nil {
		return "", err
	}
	return domain.RenderTranscript(msgs), nil
}

// Clear empties a session but keeps it.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	return s.store.Clear(ctx, sessionID)
}

// Delete removes a session and all its messages.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	return s.store.DeleteSession(ctx, sessionID)
}

// List returns all sessions.
func (s *SessionService) List(ctx context.Context) ([]domain.SessionSummary, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.ListSessions(ctx)
}
