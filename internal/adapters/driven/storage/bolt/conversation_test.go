package bolt

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func msg(role domain.Role, content string) domain.Message {
	return domain.Message{Role: role, Content: content}
}

func TestConversationStore_CreateSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.CreateSession(ctx, "s1"))
	assert.ErrorIs(t, store.CreateSession(ctx, "s1"), domain.ErrAlreadyExists)

	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	msgs, err := store.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConversationStore_AppendAutoCreatesAndOrders(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 12; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, store.Append(ctx, "s", msg(role, fmt.Sprintf("m%d", i))))
	}

	msgs, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 12)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
	}
	assert.Equal(t, domain.RoleAssistant, msgs[11].Role)

	last, err := store.Messages(ctx, "s", 3)
	require.NoError(t, err)
	require.Len(t, last, 3)
	assert.Equal(t, "m9", last[0].Content)
}

func TestConversationStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s", msg(domain.RoleUser, "kept")))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	msgs, err := reopened.Messages(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].Content)
}

func TestConversationStore_ClearAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Append(ctx, "s", msg(domain.RoleUser, "q")))
	require.NoError(t, store.Clear(ctx, "s"))

	msgs, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	ok, err := store.Exists(ctx, "s")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, store.Clear(ctx, "missing"), domain.ErrNotFound)
	require.NoError(t, store.DeleteSession(ctx, "s"))
	assert.ErrorIs(t, store.DeleteSession(ctx, "s"), domain.ErrNotFound)
}

func TestConversationStore_ListSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, store.CreateSession(ctx, "zeta"))
	require.NoError(t, store.CreateSession(ctx, "alpha"))
	require.NoError(t, store.Append(ctx, "zeta", msg(domain.RoleUser, "x")))
	require.NoError(t, store.Append(ctx, "zeta", msg(domain.RoleAssistant, "y")))

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "zeta", sessions[0].ID)
	assert.Equal(t, 2, sessions[0].MessageCount)
	assert.True(t, sessions[0].UpdatedAt.After(sessions[0].CreatedAt))
	assert.Equal(t, "alpha", sessions[1].ID)

	require.NoError(t, store.DeleteAll(ctx))
	sessions, err = store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestConversationStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				assert.NoError(t, store.Append(ctx, fmt.Sprintf("s%d", w%4), msg(domain.RoleUser, "m")))
			}
		}(w)
	}
	wg.Wait()

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	for _, s := range sessions {
		assert.Equal(t, 50, s.MessageCount)
	}
}
