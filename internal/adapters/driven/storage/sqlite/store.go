package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

var errNoTenant = errors.New("tenant is required")

// migrationFiles holds the NNN_name.up.sql / .down.sql pairs applied in
// version order on open.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

const chunkColumns = `id, tenant_id, document_id, document_title, page_number,
	section_title, content, token_count`

// Store is a SQLite-based vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docqa/data/vectors.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	schema, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: sqlite: %w", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert stores chunks with their vectors in one transaction.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			document_id = excluded.document_id,
			document_title = excluded.document_title,
			page_number = excluded.page_number,
			section_title = excluded.section_title,
			content = excluded.content,
			token_count = excluded.token_count,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if c.TenantID == "" {
			return fmt.Errorf("chunk %s: %w", c.ID, errNoTenant)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.TenantID, c.DocumentID, c.DocumentTitle,
			c.PageNumber, c.SectionTitle, c.Text, c.TokenCount, similarity.Encode(vectors[i])); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query scores every chunk of the tenant and returns the nearest.
func (s *Store) Query(ctx context.Context, q domain.VectorQuery) ([]domain.RetrievalResult, error) {
	if q.TenantID == "" {
		return nil, errNoTenant
	}

	where, args := tenantFilter(q.TenantID, q.DocumentIDs)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+", embedding FROM chunks WHERE "+where+" ORDER BY seq", args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Chunk
	var scored []similarity.Scored
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.TenantID, &c.DocumentID, &c.DocumentTitle, &c.PageNumber,
			&c.SectionTitle, &c.Text, &c.TokenCount, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		vec, err := similarity.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		score, err := similarity.Cosine(q.Vector, vec)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		scored = append(scored, similarity.Scored{Index: len(candidates), Score: score})
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	top := similarity.TopK(scored, q.Limit)
	results := make([]domain.RetrievalResult, 0, len(top))
	for _, sc := range top {
		results = append(results, domain.RetrievalResult{Chunk: candidates[sc.Index], Score: sc.Score})
	}
	return results, nil
}

// DeleteByDocument removes every chunk of the tenant's document.
func (s *Store) DeleteByDocument(ctx context.Context, documentID, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, errNoTenant
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE tenant_id = ? AND document_id = ?", tenantID, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// Scan returns the matching chunks in insertion order.
func (s *Store) Scan(ctx context.Context, filter domain.ScanFilter) ([]domain.Chunk, error) {
	if filter.TenantID == "" {
		return nil, errNoTenant
	}

	var docs []string
	if filter.DocumentID != "" {
		docs = []string{filter.DocumentID}
	}
	where, args := tenantFilter(filter.TenantID, docs)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE "+where+" ORDER BY seq", args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.TenantID, &c.DocumentID, &c.DocumentTitle, &c.PageNumber,
			&c.SectionTitle, &c.Text, &c.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// tenantFilter builds the WHERE clause scoping rows to a tenant and,
// optionally, to any of the given documents.
func tenantFilter(tenantID string, documentIDs []string) (string, []any) {
	where := "tenant_id = ?"
	args := []any{tenantID}
	if len(documentIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentIDs)), ",")
		where += " AND document_id IN (" + placeholders + ")"
		for _, id := range documentIDs {
			args = append(args, id)
		}
	}
	return where, args
}
