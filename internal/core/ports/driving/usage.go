package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// UsageService exposes today's query and spend counters.
type UsageService interface {
	// Snapshot returns today's usage. DocumentsStored is filled for the tenant.
	Snapshot(ctx context.Context, tenantID string) (*domain.UsageSnapshot, error)

	// Reset clears today's counters.
	Reset()
}
