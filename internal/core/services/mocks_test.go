package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// mockEmbedder returns a fixed vector and records calls.
type mockEmbedder struct {
	mu      sync.Mutex
	vector  []float32
	err     error
	calls   int
	batches int
	pingErr error
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return len(m.vector) }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error               { return nil }

// mockLLM returns a canned answer and records the last request.
type mockLLM struct {
	answer string
	err    error
	calls  int
	last   driven.CompletionRequest

	// usage, when set, is returned as the provider's token report.
	usage   *driven.Completion
	pingErr error
}

func (m *mockLLM) Complete(_ context.Context, req driven.CompletionRequest) (*driven.Completion, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	out := driven.Completion{Text: m.answer}
	if m.usage != nil {
		out = *m.usage
		out.Text = m.answer
	}
	return &out, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return m.pingErr }
func (m *mockLLM) Close() error               { return nil }

// wordTokenizer counts whitespace-separated words.
type wordTokenizer struct{}

func (wordTokenizer) Count(text string) int { return len(strings.Fields(text)) }

// mockStore wraps a driven.VectorStore, failing Query a set number of times.
type mockStore struct {
	driven.VectorStore
	queryErr      error
	failQueries   int
	queries       int
	extraResults  []domain.RetrievalResult
	lastQueryArgs domain.VectorQuery
	pingErr       error
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Query(ctx context.Context, q domain.VectorQuery) ([]domain.RetrievalResult, error) {
	m.queries++
	m.lastQueryArgs = q
	if m.queries <= m.failQueries {
		return nil, m.queryErr
	}
	var results []domain.RetrievalResult
	if m.VectorStore != nil {
		var err error
		results, err = m.VectorStore.Query(ctx, q)
		if err != nil {
			return nil, err
		}
	}
	return append(results, m.extraResults...), nil
}

// mockExtractor returns preset pages.
type mockExtractor struct {
	pages       []domain.Page
	validateErr error
	extractErr  error
	extracted   bool
}

func (m *mockExtractor) Validate(_ string, _ int64) error { return m.validateErr }

func (m *mockExtractor) ExtractPages(_ context.Context, _ []byte) ([]domain.Page, error) {
	m.extracted = true
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.pages, nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

func result(tenant, doc string, page int, score float64, text string) domain.RetrievalResult {
	return domain.RetrievalResult{
		Chunk: domain.Chunk{
			ID:            domain.ChunkID(doc, page, 0),
			DocumentID:    doc,
			DocumentTitle: "Title " + doc,
			TenantID:      tenant,
			PageNumber:    page,
			Text:          text,
			TokenCount:    len(strings.Fields(text)),
		},
		Score: score,
	}
}
