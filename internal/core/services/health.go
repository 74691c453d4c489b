package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// DefaultPingTimeout bounds each component ping.
const DefaultPingTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthService pings the query path's dependencies concurrently.
// A nil dependency is reported as not configured.
type HealthService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	timeout  time.Duration
}

// NewHealthService creates a readiness checker. timeout <= 0 uses
// DefaultPingTimeout.
func NewHealthService(
	store driven.VectorStore, embedder driven.EmbeddingService, llm driven.LLMService, timeout time.Duration,
) *HealthService {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return &HealthService{store: store, embedder: embedder, llm: llm, timeout: timeout}
}

// Ready is true only when all three components answer.
func (s *HealthService) Ready(ctx context.Context) domain.Readiness {
	checks := []struct {
		name string
		dep  pinger
	}{
		{domain.ComponentVectorStore, s.store},
		{domain.ComponentEmbedding, s.embedder},
		{domain.ComponentLLM, s.llm},
	}
	statuses := make([]domain.ComponentStatus, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			statuses[i] = s.ping(ctx, c.name, c.dep)
			return nil
		})
	}
	_ = g.Wait()

	ready := true
	for _, st := range statuses {
		ready = ready && st.Ready
	}
	return domain.Readiness{Ready: ready, Components: statuses}
}

func (s *HealthService) ping(ctx context.Context, name string, dep pinger) domain.ComponentStatus {
	if dep == nil {
		return domain.ComponentStatus{Name: name, Error: "not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := dep.Ping(ctx); err != nil {
		logger.Debug("Readiness: %s: %v", name, err)
		return domain.ComponentStatus{Name: name, Error: err.Error()}
	}
	return domain.ComponentStatus{Name: name, Ready: true}
}
