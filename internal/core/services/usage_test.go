package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestUsageService_Snapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVectorStore()
	require.NoError(t, store.Upsert(ctx, []domain.Chunk{
		result("t1", "doc-a", 1, 0, "a").Chunk,
		result("t1", "doc-b", 1, 0, "b").Chunk,
		result("t2", "doc-c", 1, 0, "c").Chunk,
	}, [][]float32{{1}, {1}, {1}}))
	documents := NewDocumentService(nil, nil, nil, store, DocumentLimits{})
	governor, _ := newTestGovernor(10, 1)
	governor.Record(5, 5, 0.1)

	service := NewUsageService(governor, documents)

	snap, err := service.Snapshot(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Queries)
	assert.Equal(t, 2, snap.DocumentsStored)

	service.Reset()
	snap, err = service.Snapshot(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, snap.Queries)
}

func TestUsageService_WithoutDocuments(t *testing.T) {
	governor, _ := newTestGovernor(10, 1)

	snap, err := NewUsageService(governor, nil).Snapshot(context.Background(), "t1")

	require.NoError(t, err)
	assert.Zero(t, snap.DocumentsStored)
}
