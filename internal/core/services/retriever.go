package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// overfetchFactor is how many candidates are requested per wanted result,
// since the store's top-k does not know about the score threshold.
const overfetchFactor = 2

// Retriever runs tenant-scoped similarity search with a score threshold.
// It has no side effects and never retries.
type Retriever struct {
	store driven.VectorStore
}

// NewRetriever creates a retriever over the given vector store.
func NewRetriever(store driven.VectorStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to req.Limit results of the tenant with a score of
// at least req.MinScore, best first. A request without a tenant is rejected.
func (r *Retriever) Retrieve(ctx context.Context, req domain.RetrieveRequest) ([]domain.RetrievalResult, error) {
	if req.TenantID == "" {
		return nil, domain.NewValidationError(domain.ReasonValidation, "retrieval requires a tenant")
	}
	if req.Limit <= 0 {
		return nil, domain.NewValidationError(domain.ReasonValidation, "retrieval limit must be positive")
	}

	candidates, err := r.store.Query(ctx, domain.VectorQuery{
		Vector:      req.Vector,
		TenantID:    req.TenantID,
		DocumentIDs: req.DocumentIDs,
		Limit:       req.Limit * overfetchFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	allowed := make(map[string]bool, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		allowed[id] = true
	}

	results := make([]domain.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		if c.TenantID != req.TenantID {
			logger.Warn("Dropping chunk %s of foreign tenant from results", c.ID)
			continue
		}
		if len(allowed) > 0 && !allowed[c.DocumentID] {
			continue
		}
		if c.Score < req.MinScore {
			continue
		}
		results = append(results, c)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	logger.Debug("Retrieved %d of %d candidates (min score %.2f)", len(results), len(candidates), req.MinScore)
	return results, nil
}
