package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// CreateSession registers a new empty session.
func (s *conversationStore) CreateSession(ctx context.Context, id string) error {
	now := s.store.now()
	_, err := s.store.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)", id, now, now)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("session %s: %w", id, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Append adds a message, creating the session if needed. The session row
// and the message are written in one transaction.
func (s *conversationStore) Append(ctx context.Context, id string, msg domain.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.store.now()
	}

	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
		`, id, msg.Timestamp, msg.Timestamp); err != nil {
			return fmt.Errorf("touching session: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)
		`, id, string(msg.Role), msg.Content, msg.Timestamp); err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
		return nil
	})
}

// Messages returns the last max messages, oldest first.
func (s *conversationStore) Messages(ctx context.Context, id string, max int) ([]domain.Message, error) {
	query := `
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM messages
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`
	limit := max
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return messages, nil
}

// Exists reports whether a session is known.
func (s *conversationStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return true, nil
}

// Clear empties a session's log but keeps the session.
func (s *conversationStore) Clear(ctx context.Context, id string) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", s.store.now(), id)
		if err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		if err := requireAffected(res, "session "+id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("clearing messages: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a session; its messages cascade.
func (s *conversationStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return requireAffected(res, "session "+id)
}

// ListSessions returns every session, oldest first.
func (s *conversationStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT s.id, s.created_at, s.updated_at, COUNT(m.id)
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	summaries := []domain.SessionSummary{}
	for rows.Next() {
		var sum domain.SessionSummary
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&sum.ID, &createdAt, &updatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.CreatedAt = createdAt
		sum.UpdatedAt = updatedAt
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return summaries, nil
}

// DeleteAll removes every session.
func (s *conversationStore) DeleteAll(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	return nil
}

// isConstraintError reports a UNIQUE or PRIMARY KEY violation.
func isConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
