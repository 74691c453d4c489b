package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QueryService answers questions from a tenant's documents.
type QueryService interface {
	// Ask runs the full retrieval and grounding pipeline.
	// Failures are *domain.QueryError values carrying a reason code.
	Ask(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}
