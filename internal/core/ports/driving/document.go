package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService manages a tenant's uploaded documents.
type DocumentService interface {
	// Ingest validates, chunks, embeds and stores an uploaded file.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// List returns the tenant's documents reconstructed from stored chunks.
	List(ctx context.Context, tenantID string) ([]domain.StoredDocument, error)

	// Get returns one document with its chunks.
	// Returns domain.ErrNotFound if the tenant has no such document.
	Get(ctx context.Context, tenantID, documentID string) (*domain.DocumentDetail, error)

	// Delete removes a document and returns the number of chunks removed.
	// Returns domain.ErrNotFound if nothing was removed.
	Delete(ctx context.Context, tenantID, documentID string) (int, error)

	// Count returns how many documents the tenant has stored.
	Count(ctx context.Context, tenantID string) (int, error)
}
