package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

const probeText = "sercha-rag connectivity probe"

// ConfigValidator builds a throwaway service from candidate settings and
// exercises it. Nothing is cached between calls.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator. A non-positive timeout uses pingTimeout.
func NewConfigValidator(timeout time.Duration) *ConfigValidator {
	if timeout <= 0 {
		timeout = pingTimeout
	}
	return &ConfigValidator{timeout: timeout}
}

func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return err
	}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return err
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return fmt.Errorf("%w: model %s returned %d values, expected %d",
			domain.ErrDimensionMismatch, svc.ModelName(), len(vec), want)
	}
	return nil
}

func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
