package services

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure UsageService implements the interface.
var _ driving.UsageService = (*UsageService)(nil)

// UsageService reports the governor's counters with the tenant's document count.
type UsageService struct {
	governor  *UsageGovernor
	documents driving.DocumentService
}

// NewUsageService creates a usage service.
func NewUsageService(governor *UsageGovernor, documents driving.DocumentService) *UsageService {
	return &UsageService{governor: governor, documents: documents}
}

// Snapshot returns today's usage for the tenant.
func (s *UsageService) Snapshot(ctx context.Context, tenantID string) (*domain.UsageSnapshot, error) {
	snap := s.governor.Snapshot()
	if s.documents != nil {
		count, err := s.documents.Count(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		snap.DocumentsStored = count
	}
	return &snap, nil
}

// Reset clears today's counters.
func (s *UsageService) Reset() {
	s.governor.Reset()
}
