package services

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// healthTimeout bounds each capability probe.
const healthTimeout = 5 * time.Second

type collectionInfo interface {
	Info(ctx context.Context) (*driven.CollectionInfo, error)
}

// HealthService probes the embedding service, the LLM and the vector store.
type HealthService struct {
	embedder driven.EmbeddingService
	llm      driven.LLMService
	index    collectionInfo
}

// NewHealthService creates a health service. Any dependency may be nil, in
// which case it is reported as not configured.
func NewHealthService(embedder driven.EmbeddingService, llm driven.LLMService, index *VectorIndex) *HealthService {
	h := &HealthService{embedder: embedder, llm: llm}
	if index != nil {
		h.index = index
	}
	return h
}

// Check probes each component. The overall status is "healthy" when every
// configured component responds, "degraded" otherwise.
func (h *HealthService) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{Status: domain.HealthStatusHealthy}

	add := func(c domain.ComponentHealth) {
		if c.Configured && !c.Healthy {
			report.Status = domain.HealthStatusDegraded
		}
		report.Components = append(report.Components, c)
	}

	embedding := domain.ComponentHealth{Name: "embedding"}
	if h.embedder != nil {
		embedding.Configured = true
		embedding.Healthy, embedding.Detail = probe(ctx, h.embedder.ModelName(), h.embedder.Ping)
	}
	add(embedding)

	llm := domain.ComponentHealth{Name: "llm"}
	if h.llm != nil {
		llm.Configured = true
		llm.Healthy, llm.Detail = probe(ctx, h.llm.ModelName(), h.llm.Ping)
	}
	add(llm)

	store := domain.ComponentHealth{Name: "vector_store"}
	if h.index != nil {
		store.Configured = true
		pctx, cancel := context.WithTimeout(ctx, healthTimeout)
		info, err := h.index.Info(pctx)
		cancel()
		if err != nil {
			store.Detail = err.Error()
		} else {
			store.Healthy = true
			store.Detail = info.Name
		}
	}
	add(store)

	return report
}

func probe(ctx context.Context, name string, ping func(context.Context) error) (bool, string) {
	pctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := ping(pctx); err != nil {
		return false, name + ": " + err.Error()
	}
	return true, name
}
