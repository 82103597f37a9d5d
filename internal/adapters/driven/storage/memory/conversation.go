package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// session is one conversation. Its mutex serialises appends and reads of
// this session only.
type session struct {
	mu        sync.Mutex
	messages  []domain.Message
	createdAt time.Time
	updatedAt time.Time

	// deleted is set under mu once the session has left the map.
	deleted bool
}

// ConversationStore is an in-memory implementation of driven.ConversationStore.
// The map lock is held only to find or create a session, never while a
// session's messages are being touched.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

func (s *ConversationStore) lookup(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *ConversationStore) getOrCreate(id string) *session {
	if sess, ok := s.lookup(id); ok {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	now := s.now()
	sess := &session{createdAt: now, updatedAt: now}
	s.sessions[id] = sess
	return sess
}

// CreateSession registers a new empty session.
func (s *ConversationStore) CreateSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return domain.ErrAlreadyExists
	}
	now := s.now()
	s.sessions[id] = &session{createdAt: now, updatedAt: now}
	return nil
}

// Append adds a message, creating the session if needed. A session deleted
// between lookup and lock is looked up again, so the message is never
// written to a session that has left the map.
func (s *ConversationStore) Append(_ context.Context, id string, msg domain.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	for {
		if s.appendTo(s.getOrCreate(id), msg) {
			return nil
		}
	}
}

// appendTo adds msg to sess and reports false when sess was deleted.
func (s *ConversationStore) appendTo(sess *session, msg domain.Message) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return false
	}
	sess.messages = append(sess.messages, msg)
	sess.updatedAt = msg.Timestamp
	return true
}

func (sess *session) markDeleted() {
	sess.mu.Lock()
	sess.deleted = true
	sess.mu.Unlock()
}

// Messages returns the last max messages, oldest first.
func (s *ConversationStore) Messages(_ context.Context, id string, max int) ([]domain.Message, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return []domain.Message{}, nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	msgs := domain.LastMessages(sess.messages, max)
	return append([]domain.Message{}, msgs...), nil
}

// Exists reports whether a session is known.
func (s *ConversationStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.lookup(id)
	return ok, nil
}

// Clear empties a session's log.
func (s *ConversationStore) Clear(_ context.Context, id string) error {
	sess, ok := s.lookup(id)
	if !ok {
		return domain.ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = nil
	sess.updatedAt = s.now()
	return nil
}

// DeleteSession removes a session.
func (s *ConversationStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	sess.markDeleted()
	return nil
}

// ListSessions returns every session, oldest first.
func (s *ConversationStore) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	sessions := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		ids = append(ids, id)
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	out := make([]domain.SessionSummary, len(ids))
	for i, sess := range sessions {
		sess.mu.Lock()
		out[i] = domain.SessionSummary{
			ID:           ids[i],
			MessageCount: len(sess.messages),
			CreatedAt:    sess.createdAt,
			UpdatedAt:    sess.updatedAt,
		}
		sess.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteAll removes every session.
func (s *ConversationStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	old := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range old {
		sess.markDeleted()
	}
	return nil
}
