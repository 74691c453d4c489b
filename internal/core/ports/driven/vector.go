package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorStore is the authoritative store of chunks and their embeddings.
// Scores are cosine similarity. Every implementation applies the tenant
// filter itself; a query or scan without a tenant is an error.
type VectorStore interface {
	// Upsert stores chunks with their vectors; vectors[i] belongs to chunks[i].
	// Re-upserting a chunk id replaces it.
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Query returns up to q.Limit chunks of the tenant, nearest first.
	Query(ctx context.Context, q domain.VectorQuery) ([]domain.RetrievalResult, error)

	// DeleteByDocument removes every chunk of a tenant's document
	// and returns how many were removed.
	DeleteByDocument(ctx context.Context, documentID, tenantID string) (int, error)

	// Scan returns the payloads matching the filter in storage order.
	Scan(ctx context.Context, filter domain.ScanFilter) ([]domain.Chunk, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
