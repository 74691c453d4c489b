// Package sqlite keeps chunks and their embeddings in a single-file SQLite
// database (modernc.org/sqlite, no cgo), by default ~/.docqa/data/vectors.db.
//
// Embeddings are stored as little-endian float32 blobs next to the chunk
// columns. Search loads the tenant's rows and ranks them by cosine
// similarity in Go; per-tenant corpora are capped at a few thousand chunks,
// so no index is kept.
//
// The schema comes from the embedded migrations/ files, applied once each
// and recorded in schema_migrations. The database runs in WAL mode with a
// busy timeout, so concurrent readers do not block the writer.
package sqlite
