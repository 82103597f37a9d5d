package throttle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return []float32{1}, c.err
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(texts) > 0 {
		c.calls++
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, c.err
}

func (c *countingEmbedder) Dimensions() int              { return 1 }
func (c *countingEmbedder) ModelName() string            { return "counting" }
func (c *countingEmbedder) Ping(_ context.Context) error { return nil }
func (c *countingEmbedder) Close() error                 { return nil }

func TestWrap_DisabledReturnsInner(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, Wrap(inner, Config{}))
	assert.Nil(t, Wrap(nil, Config{RequestsPerSecond: 5}))
}

func TestEmbedBatch_Delegates(t *testing.T) {
	inner := &countingEmbedder{}
	svc := New(inner, Config{RequestsPerSecond: 1000, BurstSize: 10})

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "counting", svc.ModelName())
	assert.Equal(t, 1, svc.Dimensions())
}

func TestEmbedBatch_EmptyDoesNotWait(t *testing.T) {
	inner := &countingEmbedder{}
	svc := New(inner, Config{RequestsPerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbed_ContextCancelledWhileWaiting(t *testing.T) {
	inner := &countingEmbedder{}
	svc := New(inner, Config{RequestsPerSecond: 0.001, BurstSize: 1})

	_, err := svc.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestObserve_RateLimitStartsBackoff(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("openai error (status 429): slow down")}
	svc := New(inner, Config{RequestsPerSecond: 1000, BurstSize: 10, Backoff: time.Hour})

	_, err := svc.Embed(context.Background(), "x")
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "y")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestObserve_OtherErrorsDoNotBackoff(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("status 500")}
	svc := New(inner, Config{RequestsPerSecond: 1000, BurstSize: 10, Backoff: time.Hour})

	_, _ = svc.Embed(context.Background(), "x")
	_, _ = svc.Embed(context.Background(), "y")
	assert.Equal(t, 2, inner.calls)
}
