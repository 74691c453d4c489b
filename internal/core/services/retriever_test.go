package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestRetriever_RequiresTenant(t *testing.T) {
	store := &mockStore{}
	retriever := NewRetriever(store)

	_, err := retriever.Retrieve(context.Background(), domain.RetrieveRequest{
		Vector: []float32{1, 0}, Limit: 3,
	})

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, store.queries, "no unscoped query may reach the store")
}

func TestRetriever_RequiresPositiveLimit(t *testing.T) {
	retriever := NewRetriever(&mockStore{})

	_, err := retriever.Retrieve(context.Background(), domain.RetrieveRequest{TenantID: "t1"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRetriever_OverfetchesAndFilters(t *testing.T) {
	store := &mockStore{extraResults: []domain.RetrievalResult{
		result("t1", "doc-a", 1, 0.35, "a"),
		result("t1", "doc-a", 2, 0.05, "b"),
		result("t1", "doc-b", 1, 0.80, "c"),
		result("t1", "doc-a", 3, 0.50, "d"),
	}}
	retriever := NewRetriever(store)

	results, err := retriever.Retrieve(context.Background(), domain.RetrieveRequest{
		Vector:   []float32{1},
		TenantID: "t1",
		Limit:    2,
		MinScore: 0.10,
	})

	require.NoError(t, err)
	assert.Equal(t, 4, store.lastQueryArgs.Limit)
	assert.Equal(t, "t1", store.lastQueryArgs.TenantID)
	require.Len(t, results, 2)
	assert.InDelta(t, 0.80, results[0].Score, 1e-9)
	assert.InDelta(t, 0.50, results[1].Score, 1e-9)
}

func TestRetriever_DropsBelowMinScore(t *testing.T) {
	store := &mockStore{extraResults: []domain.RetrievalResult{
		result("t1", "doc-a", 1, 0.09, "a"),
		result("t1", "doc-a", 2, 0.10, "b"),
	}}

	results, err := NewRetriever(store).Retrieve(context.Background(), domain.RetrieveRequest{
		Vector: []float32{1}, TenantID: "t1", Limit: 5, MinScore: 0.10,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].PageNumber)
}

func TestRetriever_RechecksTenantAndDocuments(t *testing.T) {
	// A misbehaving store leaks other tenants' and documents' chunks
	store := &mockStore{extraResults: []domain.RetrievalResult{
		result("t2", "doc-x", 1, 0.99, "foreign"),
		result("t1", "doc-z", 1, 0.95, "unrequested"),
		result("t1", "doc-a", 1, 0.40, "wanted"),
	}}

	results, err := NewRetriever(store).Retrieve(context.Background(), domain.RetrieveRequest{
		Vector: []float32{1}, TenantID: "t1", DocumentIDs: []string{"doc-a"}, Limit: 5,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "wanted", results[0].Text)
}

func TestRetriever_TenantIsolationWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	backing := memory.NewVectorStore()
	chunks := []domain.Chunk{
		result("t1", "doc-a", 1, 0, "alpha").Chunk,
		result("t1", "doc-b", 1, 0, "beta").Chunk,
		result("t2", "doc-c", 1, 0, "gamma").Chunk,
	}
	require.NoError(t, backing.Upsert(ctx, chunks, [][]float32{{1, 0}, {0.7, 0.7}, {1, 0}}))
	retriever := NewRetriever(backing)

	for _, docs := range [][]string{nil, {"doc-a"}, {"doc-c"}, {"doc-a", "doc-c"}} {
		results, err := retriever.Retrieve(ctx, domain.RetrieveRequest{
			Vector: []float32{1, 0}, TenantID: "t1", DocumentIDs: docs, Limit: 10,
		})
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, "t1", r.TenantID)
			if len(docs) > 0 {
				assert.Contains(t, docs, r.DocumentID)
			}
		}
	}
}

func TestRetriever_PropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &mockStore{failQueries: 1, queryErr: storeErr}

	_, err := NewRetriever(store).Retrieve(context.Background(), domain.RetrieveRequest{
		Vector: []float32{1}, TenantID: "t1", Limit: 1,
	})

	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, store.queries, "retriever never retries")
}
