package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// HealthService checks the dependencies a query needs.
type HealthService interface {
	// Ready pings the vector store, embedding model and LLM.
	Ready(ctx context.Context) domain.Readiness
}
