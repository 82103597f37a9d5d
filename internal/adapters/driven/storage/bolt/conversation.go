// Package bolt provides a bbolt-backed ConversationStore for a single-file,
// embedded session log.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// DatabaseFile is the file name of the database inside the data directory.
const DatabaseFile = "sessions.bolt"

var (
	bucketSessions = []byte("sessions")
	bucketMessages = []byte("messages")
	keyMeta        = []byte("meta")
)

type sessionMeta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type storedMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// ConversationStore keeps each session in its own nested bucket. Messages
// are keyed by the bucket sequence so iteration order is append order.
// bbolt allows one writer at a time, which serialises appends.
type ConversationStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the database in dataDir.
func Open(dataDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataDir, DatabaseFile), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions bucket: %w", err)
	}

	return &ConversationStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *ConversationStore) Close() error {
	return s.db.Close()
}

// CreateSession registers a new empty session.
func (s *ConversationStore) CreateSession(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		if root.Bucket([]byte(id)) != nil {
			return fmt.Errorf("session %s: %w", id, domain.ErrAlreadyExists)
		}
		_, err := createSession(root, id, s.now())
		return err
	})
}

// Append adds a message, creating the session if needed.
func (s *ConversationStore) Append(_ context.Context, id string, msg domain.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		sess := root.Bucket([]byte(id))
		if sess == nil {
			var err error
			if sess, err = createSession(root, id, msg.Timestamp); err != nil {
				return err
			}
		}

		messages := sess.Bucket(bucketMessages)
		seq, err := messages.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating message key: %w", err)
		}
		data, err := json.Marshal(storedMessage{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
		if err != nil {
			return fmt.Errorf("marshalling message: %w", err)
		}
		if err := messages.Put(itob(seq), data); err != nil {
			return fmt.Errorf("storing message: %w", err)
		}

		return touch(sess, msg.Timestamp)
	})
}

// Messages returns the last max messages, oldest first.
func (s *ConversationStore) Messages(_ context.Context, id string, max int) ([]domain.Message, error) {
	messages := []domain.Message{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		sess := tx.Bucket(bucketSessions).Bucket([]byte(id))
		if sess == nil {
			return nil
		}
		return sess.Bucket(bucketMessages).ForEach(func(_, v []byte) error {
			var stored storedMessage
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decoding message: %w", err)
			}
			messages = append(messages, domain.Message{
				Role:      domain.Role(stored.Role),
				Content:   stored.Content,
				Timestamp: stored.Timestamp,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return domain.LastMessages(messages, max), nil
}

// Exists reports whether a session is known.
func (s *ConversationStore) Exists(_ context.Context, id string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketSessions).Bucket([]byte(id)) != nil
		return nil
	})
	return ok, err
}

// Clear empties a session's log but keeps the session.
func (s *ConversationStore) Clear(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sess := tx.Bucket(bucketSessions).Bucket([]byte(id))
		if sess == nil {
			return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		if err := sess.DeleteBucket(bucketMessages); err != nil {
			return fmt.Errorf("clearing messages: %w", err)
		}
		if _, err := sess.CreateBucket(bucketMessages); err != nil {
			return fmt.Errorf("clearing messages: %w", err)
		}
		return touch(sess, s.now())
	})
}

// DeleteSession removes a session and its messages.
func (s *ConversationStore) DeleteSession(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		if root.Bucket([]byte(id)) == nil {
			return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return root.DeleteBucket([]byte(id))
	})
}

// ListSessions returns every session, oldest first.
func (s *ConversationStore) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	summaries := []domain.SessionSummary{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			sess := root.Bucket(k)
			meta, err := readMeta(sess)
			if err != nil {
				return err
			}
			summaries = append(summaries, domain.SessionSummary{
				ID:           string(k),
				MessageCount: countKeys(sess.Bucket(bucketMessages)),
				CreatedAt:    meta.CreatedAt,
				UpdatedAt:    meta.UpdatedAt,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// DeleteAll removes every session.
func (s *ConversationStore) DeleteAll(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketSessions); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketSessions)
		return err
	})
}

func createSession(root *bbolt.Bucket, id string, now time.Time) (*bbolt.Bucket, error) {
	sess, err := root.CreateBucket([]byte(id))
	if err != nil {
		return nil, fmt.Errorf("creating session %s: %w", id, err)
	}
	if _, err := sess.CreateBucket(bucketMessages); err != nil {
		return nil, fmt.Errorf("creating session %s: %w", id, err)
	}
	data, err := json.Marshal(sessionMeta{CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}
	if err := sess.Put(keyMeta, data); err != nil {
		return nil, err
	}
	return sess, nil
}

func readMeta(sess *bbolt.Bucket) (sessionMeta, error) {
	var meta sessionMeta
	if data := sess.Get(keyMeta); data != nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			return meta, fmt.Errorf("decoding session metadata: %w", err)
		}
	}
	return meta, nil
}

func touch(sess *bbolt.Bucket, at time.Time) error {
	meta, err := readMeta(sess)
	if err != nil {
		return err
	}
	meta.UpdatedAt = at
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return sess.Put(keyMeta, data)
}

func countKeys(b *bbolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

// itob encodes a sequence as a big-endian key so byte order is numeric order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
