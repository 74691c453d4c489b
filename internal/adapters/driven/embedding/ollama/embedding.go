// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/adapters/driven/upstream"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const providerName = "ollama"

// Default configuration values.
const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultModel       = "all-minilm"
	DefaultTimeout     = 30 * time.Second
	DefaultDimensions  = 384 // all-minilm
	DefaultConcurrency = 4
	DefaultBatchSize   = 16
)

// Config holds configuration for the Ollama embedding service.
// Zero fields take the defaults above; Dimensions defaults to the known
// size of Model.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int

	// BatchSize is how many texts go in one /api/embed request.
	BatchSize int

	// Concurrency caps in-flight requests during EmbedBatch.
	Concurrency int
}

// EmbeddingService calls /api/embed, which takes a list of inputs. Servers
// that predate it answer 404; from then on the service sends one text per
// request to the older /api/embeddings endpoint.
type EmbeddingService struct {
	client      *http.Client
	baseURL     string
	model       string
	dimensions  int
	batchSize   int
	concurrency int

	legacy atomic.Bool
}

type batchRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type batchResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

type legacyRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type legacyResponse struct {
	Embedding []float64 `json:"embedding"`
}

// errNoBatchEndpoint marks a 404 from /api/embed.
var errNoBatchEndpoint = errors.New("ollama: /api/embed not available")

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	return &EmbeddingService{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in batches of BatchSize, up to Concurrency
// batches at a time. Results keep input order; any failure fails the call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		g.Go(func() error {
			return s.embedRange(gctx, texts[start:end], vectors[start:end], start)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// embedRange fills out with the vectors for texts; offset is only used
// in error messages.
func (s *EmbeddingService) embedRange(ctx context.Context, texts []string, out [][]float32, offset int) error {
	if !s.legacy.Load() {
		raw, err := s.embedBatch(ctx, texts)
		if err == nil {
			return s.convert(raw, out, offset)
		}
		if !errors.Is(err, errNoBatchEndpoint) {
			return fmt.Errorf("embed texts %d-%d: %w", offset, offset+len(texts)-1, err)
		}
		if s.legacy.CompareAndSwap(false, true) {
			logger.Debug("ollama: %s has no /api/embed, embedding one text per request", s.baseURL)
		}
	}

	for i, text := range texts {
		raw, err := s.embedOne(ctx, text)
		if err != nil {
			return fmt.Errorf("embed text %d: %w", offset+i, err)
		}
		if err := s.convert([][]float64{raw}, out[i:i+1], offset+i); err != nil {
			return err
		}
	}
	return nil
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var resp batchResponse
	err := s.post(ctx, "/api/embed", batchRequest{Model: s.model, Input: texts}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: sent %d texts, got %d embeddings", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) embedOne(ctx context.Context, text string) ([]float64, error) {
	var resp legacyResponse
	if err := s.post(ctx, "/api/embeddings", legacyRequest{Model: s.model, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// convert narrows to float32 after checking every vector's size.
func (s *EmbeddingService) convert(raw [][]float64, out [][]float32, offset int) error {
	for i, vec := range raw {
		if len(vec) != s.dimensions {
			return fmt.Errorf("ollama: model %s returned %d dimensions for text %d, expected %d",
				s.model, len(vec), offset+i, s.dimensions)
		}
		v := make([]float32, len(vec))
		for j, x := range vec {
			v[j] = float32(x)
		}
		out[i] = v
	}
	return nil
}

func (s *EmbeddingService) post(ctx context.Context, path string, body, into any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return upstream.Transport(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && path == "/api/embed":
		_, _ = io.Copy(io.Discard, resp.Body)
		return errNoBatchEndpoint
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(resp.Body)
		return upstream.Status(providerName, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks /api/tags, which proves the server is up without loading
// the model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping: %w", upstream.Transport(providerName, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama: ping: %w", upstream.Status(providerName, resp.StatusCode, body))
	}
	return nil
}

// Close is a no-op; the HTTP client holds nothing that needs releasing.
func (s *EmbeddingService) Close() error {
	return nil
}
