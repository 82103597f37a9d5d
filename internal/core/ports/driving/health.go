package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// HealthService reports whether the external capabilities are reachable.
type HealthService interface {
	// Check probes every configured component.
	Check(ctx context.Context) domain.HealthReport
}
