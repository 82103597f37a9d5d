package memory

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

func msg(role domain.Role, content string) domain.Message {
	return domain.Message{Role: role, Content: content}
}

func TestConversationStore_CreateSession(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	require.NoError(t, store.CreateSession(ctx, "s1"))
	assert.ErrorIs(t, store.CreateSession(ctx, "s1"), domain.ErrAlreadyExists)

	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConversationStore_AppendAutoCreates(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	require.NoError(t, store.Append(ctx, "new", msg(domain.RoleUser, "hello")))

	ok, err := store.Exists(ctx, "new")
	require.NoError(t, err)
	assert.True(t, ok)

	msgs, err := store.Messages(ctx, "new", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestConversationStore_MessagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	want := []domain.Message{
		msg(domain.RoleUser, "q1"),
		msg(domain.RoleAssistant, "a1"),
		msg(domain.RoleUser, "q2"),
		msg(domain.RoleAssistant, "a2"),
	}
	for _, m := range want {
		require.NoError(t, store.Append(ctx, "s", m))
	}

	all, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := range want {
		assert.Equal(t, want[i].Role, all[i].Role)
		assert.Equal(t, want[i].Content, all[i].Content)
	}

	last, err := store.Messages(ctx, "s", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "q2", last[0].Content)
	assert.Equal(t, "a2", last[1].Content)
}

func TestConversationStore_MessagesUnknownIsEmpty(t *testing.T) {
	msgs, err := NewConversationStore().Messages(context.Background(), "missing", 5)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestConversationStore_MessagesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()
	require.NoError(t, store.Append(ctx, "s", msg(domain.RoleUser, "original")))

	msgs, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	msgs[0].Content = "mutated"

	again, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestConversationStore_ClearAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	assert.ErrorIs(t, store.Clear(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteSession(ctx, "missing"), domain.ErrNotFound)

	require.NoError(t, store.Append(ctx, "s", msg(domain.RoleUser, "hi")))
	require.NoError(t, store.Clear(ctx, "s"))

	msgs, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	ok, _ := store.Exists(ctx, "s")
	assert.True(t, ok, "clear keeps the session")

	require.NoError(t, store.DeleteSession(ctx, "s"))
	ok, _ = store.Exists(ctx, "s")
	assert.False(t, ok)
}

func TestConversationStore_ListSessions(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, store.CreateSession(ctx, "b"))
	require.NoError(t, store.CreateSession(ctx, "a"))
	require.NoError(t, store.Append(ctx, "b", msg(domain.RoleUser, "x")))

	list, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 1, list[0].MessageCount)
	assert.Equal(t, "a", list[1].ID)

	require.NoError(t, store.DeleteAll(ctx))
	list, err = store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConversationStore_ConcurrentAppendsKeepOrderPerSession(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	const sessions = 8
	const perSession = 50

	var wg sync.WaitGroup
	for s := 0; s < sessions; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", s)
			for i := 0; i < perSession; i++ {
				_ = store.Append(ctx, id, msg(domain.RoleUser, fmt.Sprintf("%d", i)))
			}
		}(s)
	}
	wg.Wait()

	for s := 0; s < sessions; s++ {
		msgs, err := store.Messages(ctx, fmt.Sprintf("s%d", s), 0)
		require.NoError(t, err)
		require.Len(t, msgs, perSession)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("%d", i), m.Content)
		}
	}
}

func TestConversationStore_AppendSkipsDeletedSession(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	stale := store.getOrCreate("s")
	require.NoError(t, store.DeleteSession(ctx, "s"))

	assert.False(t, store.appendTo(stale, msg(domain.RoleUser, "lost")))

	require.NoError(t, store.Append(ctx, "s", msg(domain.RoleUser, "kept")))
	msgs, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].Content)
	assert.Empty(t, stale.messages)
}

func TestConversationStore_DeleteAllMarksSessions(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	stale := store.getOrCreate("a")
	require.NoError(t, store.DeleteAll(ctx))

	assert.False(t, store.appendTo(stale, msg(domain.RoleUser, "lost")))
	require.NoError(t, store.Append(ctx, "a", msg(domain.RoleUser, "kept")))

	msgs, err := store.Messages(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestConversationStore_AppendRacingDelete(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = store.Append(ctx, "s", msg(domain.RoleUser, fmt.Sprintf("%d", i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = store.DeleteSession(ctx, "s")
		}
	}()
	wg.Wait()

	require.NoError(t, store.Append(ctx, "s", msg(domain.RoleAssistant, "final")))
	msgs, err := store.Messages(ctx, "s", 0)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "final", msgs[len(msgs)-1].Content)
}
