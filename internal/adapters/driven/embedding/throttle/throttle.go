// Package throttle wraps an embedding service with client-side rate limiting.
package throttle

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultBackoff is the pause applied after the provider reports a 429.
const DefaultBackoff = 30 * time.Second

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size (default: 1).
	BurstSize int

	// Backoff is the pause after a rate limit response (default: 30s).
	Backoff time.Duration
}

// EmbeddingService delegates to an inner service, waiting on a token bucket
// before each request.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap returns inner unchanged when the rate is not positive.
func Wrap(inner driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if inner == nil || cfg.RequestsPerSecond <= 0 {
		return inner
	}
	return New(inner, cfg)
}

// New creates a rate limited embedding service.
func New(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &EmbeddingService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// wait blocks for any backoff period and then for a token.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return s.limiter.Wait(ctx)
}

// observe starts a backoff period when err reports HTTP 429.
func (s *EmbeddingService) observe(err error) {
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		return
	}
	logger.Warn("embedding provider rate limited, pausing for %s", s.backoff)

	s.mu.Lock()
	s.retryAt = time.Now().Add(s.backoff)
	s.mu.Unlock()
}

// Embed waits for capacity and embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	vec, err := s.inner.Embed(ctx, text)
	s.observe(err)
	return vec, err
}

// EmbedBatch waits for capacity and embeds a batch as one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return s.inner.EmbedBatch(ctx, texts)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	vecs, err := s.inner.EmbedBatch(ctx, texts)
	s.observe(err)
	return vecs, err
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not rate limited.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
