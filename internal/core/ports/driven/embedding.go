package driven

import "context"

// EmbeddingService turns text into vectors for the VectorStore. Ingestion
// embeds chunks in batches; a question is embedded alone. Every vector has
// Dimensions() entries, and a store collection is sized from the first
// batch it receives, so switching models needs a fresh collection.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request that proves the model is usable.
	Ping(ctx context.Context) error

	Close() error
}
