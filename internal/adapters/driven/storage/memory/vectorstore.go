package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

var errNoTenant = errors.New("tenant is required")

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is brute-force cosine over the tenant's entries.
type VectorStore struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		index: make(map[string]int),
	}
}

// Upsert stores chunks with their vectors. An existing chunk id is replaced in place.
func (s *VectorStore) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, chunk := range chunks {
		if chunk.TenantID == "" {
			return fmt.Errorf("chunk %s: %w", chunk.ID, errNoTenant)
		}
		e := entry{chunk: chunk, vector: append([]float32(nil), vectors[i]...)}
		if pos, ok := s.index[chunk.ID]; ok {
			s.entries[pos] = e
			continue
		}
		s.index[chunk.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return nil
}

// Query returns the tenant's nearest chunks.
func (s *VectorStore) Query(_ context.Context, q domain.VectorQuery) ([]domain.RetrievalResult, error) {
	if q.TenantID == "" {
		return nil, errNoTenant
	}
	allowed := make(map[string]bool, len(q.DocumentIDs))
	for _, id := range q.DocumentIDs {
		allowed[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []int
	var scored []similarity.Scored
	for i, e := range s.entries {
		if e.chunk.TenantID != q.TenantID {
			continue
		}
		if len(allowed) > 0 && !allowed[e.chunk.DocumentID] {
			continue
		}
		score, err := similarity.Cosine(q.Vector, e.vector)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", e.chunk.ID, err)
		}
		scored = append(scored, similarity.Scored{Index: len(candidates), Score: score})
		candidates = append(candidates, i)
	}

	top := similarity.TopK(scored, q.Limit)
	results := make([]domain.RetrievalResult, 0, len(top))
	for _, sc := range top {
		results = append(results, domain.RetrievalResult{
			Chunk: s.entries[candidates[sc.Index]].chunk,
			Score: sc.Score,
		})
	}
	return results, nil
}

// DeleteByDocument removes every chunk of the tenant's document.
func (s *VectorStore) DeleteByDocument(_ context.Context, documentID, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, errNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.chunk.DocumentID == documentID && e.chunk.TenantID == tenantID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	s.index = make(map[string]int, len(kept))
	for i, e := range kept {
		s.index[e.chunk.ID] = i
	}
	return removed, nil
}

// Scan returns the matching chunks in insertion order.
func (s *VectorStore) Scan(_ context.Context, filter domain.ScanFilter) ([]domain.Chunk, error) {
	if filter.TenantID == "" {
		return nil, errNoTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk
	for _, e := range s.entries {
		if e.chunk.TenantID != filter.TenantID {
			continue
		}
		if filter.DocumentID != "" && e.chunk.DocumentID != filter.DocumentID {
			continue
		}
		chunks = append(chunks, e.chunk)
	}
	return chunks, nil
}

// Ping always succeeds.
func (s *VectorStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for memory store.
func (s *VectorStore) Close() error {
	return nil
}
