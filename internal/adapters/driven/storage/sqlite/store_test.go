package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// setupTestStore creates a SQLite store in a test temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func testChunk(tenant, doc string, page, ordinal int) domain.Chunk {
	return domain.Chunk{
		ID:            domain.ChunkID(doc, page, ordinal),
		DocumentID:    doc,
		DocumentTitle: "Contract " + doc,
		TenantID:      tenant,
		PageNumber:    page,
		SectionTitle:  "Terms",
		Text:          fmt.Sprintf("text %d/%d of %s", page, ordinal, doc),
		TokenCount:    5,
	}
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	chunks := []domain.Chunk{
		testChunk("t1", "doc-a", 1, 0),
		testChunk("t1", "doc-a", 2, 0),
		testChunk("t1", "doc-b", 1, 0),
		testChunk("t2", "doc-c", 1, 0),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0.8, 0.2, 0},
		{0, 0, 1},
		{1, 0, 0},
	}
	require.NoError(t, store.Upsert(context.Background(), chunks, vectors))
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "vectors.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_MigrationsRunOnce(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	seed(t, first)
	require.NoError(t, first.Close())

	// Reopening must not re-run migrations or lose data
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	chunks, err := second.Scan(context.Background(), domain.ScanFilter{TenantID: "t1"})
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

// ==================== Upsert Tests ====================

func TestStore_Upsert_RoundTripsPayload(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	chunks, err := store.Scan(context.Background(), domain.ScanFilter{TenantID: "t1", DocumentID: "doc-a"})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, testChunk("t1", "doc-a", 1, 0), chunks[0])
	assert.Equal(t, testChunk("t1", "doc-a", 2, 0), chunks[1])
}

func TestStore_Upsert_ReplacesExisting(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	updated := testChunk("t1", "doc-b", 1, 0)
	updated.Text = "amended"
	require.NoError(t, store.Upsert(ctx, []domain.Chunk{updated}, [][]float32{{1, 0, 0}}))

	chunks, err := store.Scan(ctx, domain.ScanFilter{TenantID: "t1", DocumentID: "doc-b"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "amended", chunks[0].Text)

	results, err := store.Query(ctx, domain.VectorQuery{Vector: []float32{1, 0, 0}, TenantID: "t1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestStore_Upsert_Rejects(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []domain.Chunk{testChunk("t1", "d", 1, 0)}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.Upsert(ctx, []domain.Chunk{testChunk("", "d", 1, 0)}, [][]float32{{1}})
	assert.Error(t, err)
}

// ==================== Query Tests ====================

func TestStore_Query_NearestFirst(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	results, err := store.Query(context.Background(), domain.VectorQuery{
		Vector:   []float32{1, 0, 0},
		TenantID: "t1",
		Limit:    2,
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-a_p1_c0", results[0].ID)
	assert.Equal(t, "doc-a_p2_c0", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestStore_Query_TenantIsolation(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	for _, docs := range [][]string{nil, {"doc-c"}, {"doc-b", "doc-c"}} {
		results, err := store.Query(ctx, domain.VectorQuery{
			Vector:      []float32{1, 0, 0},
			TenantID:    "t1",
			DocumentIDs: docs,
			Limit:       10,
		})
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, "t1", r.TenantID)
		}
	}

	results, err := store.Query(ctx, domain.VectorQuery{
		Vector:      []float32{1, 0, 0},
		TenantID:    "t1",
		DocumentIDs: []string{"doc-c"},
		Limit:       10,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Query_DocumentFilter(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	results, err := store.Query(context.Background(), domain.VectorQuery{
		Vector:      []float32{1, 0, 0},
		TenantID:    "t1",
		DocumentIDs: []string{"doc-b"},
		Limit:       10,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-b", results[0].DocumentID)
}

func TestStore_Query_RequiresTenant(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Query(context.Background(), domain.VectorQuery{Vector: []float32{1}, Limit: 1})

	assert.Error(t, err)
}

// ==================== Delete and Scan Tests ====================

func TestStore_DeleteByDocument(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	removed, err := store.DeleteByDocument(ctx, "doc-c", "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = store.DeleteByDocument(ctx, "doc-a", "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := store.Scan(ctx, domain.ScanFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "doc-b", remaining[0].DocumentID)

	other, err := store.Scan(ctx, domain.ScanFilter{TenantID: "t2"})
	require.NoError(t, err)
	assert.Len(t, other, 1)

	_, err = store.DeleteByDocument(ctx, "doc-a", "")
	assert.Error(t, err)
}

func TestStore_Scan_RequiresTenant(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Scan(context.Background(), domain.ScanFilter{DocumentID: "doc-a"})

	assert.Error(t, err)
}

func TestTenantFilter(t *testing.T) {
	where, args := tenantFilter("t1", nil)
	assert.Equal(t, "tenant_id = ?", where)
	assert.Equal(t, []any{"t1"}, args)

	where, args = tenantFilter("t1", []string{"a", "b"})
	assert.Equal(t, "tenant_id = ? AND document_id IN (?,?)", where)
	assert.Equal(t, []any{"t1", "a", "b"}, args)
}
