// Package qdrant provides a driven.VectorStore backed by a Qdrant cluster
// over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultCollection = "legal_documents"
	DefaultTimeout    = 15 * time.Second

	// scrollPageSize is the number of points fetched per scroll request.
	scrollPageSize = 256
)

// pointNamespace seeds the UUIDv5 point ids derived from chunk ids.
var pointNamespace = uuid.NameSpaceOID

var errNoTenant = errors.New("tenant is required")

// errCollectionMissing marks a 404 on the collection itself.
var errCollectionMissing = errors.New("collection does not exist")

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the cluster base URL, e.g. http://localhost:6333.
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name (default: legal_documents).
	Collection string

	// Dimensions is the vector size used when creating the collection.
	Dimensions int

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Store is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection on first write.
type Store struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	dimensions int

	mu    sync.Mutex
	ready bool
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant URL is required", domain.ErrVectorStoreUnavailable)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Store{
		client:     client,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}, nil
}

// PointID returns the deterministic point id of a chunk.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// payload is the stored form of a chunk.
type payload struct {
	ChunkID       string `json:"chunk_id"`
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	TenantID      string `json:"tenant_id"`
	PageNumber    int    `json:"page_number"`
	SectionTitle  string `json:"section_title,omitempty"`
	Text          string `json:"text"`
	TokenCount    int    `json:"token_count"`
}

func toPayload(c domain.Chunk) payload {
	return payload{
		ChunkID:       c.ID,
		DocumentID:    c.DocumentID,
		DocumentTitle: c.DocumentTitle,
		TenantID:      c.TenantID,
		PageNumber:    c.PageNumber,
		SectionTitle:  c.SectionTitle,
		Text:          c.Text,
		TokenCount:    c.TokenCount,
	}
}

func (p payload) chunk() domain.Chunk {
	return domain.Chunk{
		ID:            p.ChunkID,
		DocumentID:    p.DocumentID,
		DocumentTitle: p.DocumentTitle,
		TenantID:      p.TenantID,
		PageNumber:    p.PageNumber,
		SectionTitle:  p.SectionTitle,
		Text:          p.Text,
		TokenCount:    p.TokenCount,
	}
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

// condition is a field match; filter combines them like Qdrant does:
// every must condition and at least one should condition.
type condition struct {
	Key   string         `json:"key"`
	Match map[string]any `json:"match"`
}

type filter struct {
	Must   []condition `json:"must"`
	Should []condition `json:"should,omitempty"`
}

func matchValue(key, value string) condition {
	return condition{Key: key, Match: map[string]any{"value": value}}
}

// tenantFilter scopes to a tenant and optionally to any of the documents.
func tenantFilter(tenantID string, documentIDs ...string) filter {
	f := filter{Must: []condition{matchValue("tenant_id", tenantID)}}
	for _, id := range documentIDs {
		f.Should = append(f.Should, matchValue("document_id", id))
	}
	return f
}

// EnsureCollection creates the collection and its payload indexes if missing.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
	switch {
	case errors.Is(err, errCollectionMissing):
		if dimensions <= 0 {
			return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimensions)
		}
		logger.Info("Creating qdrant collection %s (%d dimensions)", s.collection, dimensions)
		body := map[string]any{
			"vectors": map[string]any{"size": dimensions, "distance": "Cosine"},
		}
		if err := s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		for _, field := range []string{"tenant_id", "document_id"} {
			index := map[string]any{"field_name": field, "field_schema": "keyword"}
			if err := s.do(ctx, http.MethodPut, s.collectionPath("/index?wait=true"), index, nil); err != nil {
				return fmt.Errorf("create payload index %s: %w", field, err)
			}
		}
	case err != nil:
		return fmt.Errorf("get collection: %w", err)
	}

	s.ready = true
	return nil
}

// Upsert writes chunks as points, creating the collection if needed.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	dims := s.dimensions
	if dims == 0 {
		dims = len(vectors[0])
	}
	if err := s.EnsureCollection(ctx, dims); err != nil {
		return err
	}

	points := make([]point, len(chunks))
	for i, c := range chunks {
		if c.TenantID == "" {
			return fmt.Errorf("chunk %s: %w", c.ID, errNoTenant)
		}
		points[i] = point{ID: PointID(c.ID), Vector: vectors[i], Payload: toPayload(c)}
	}

	body := map[string]any{"points": points}
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Query runs a filtered similarity search.
func (s *Store) Query(ctx context.Context, q domain.VectorQuery) ([]domain.RetrievalResult, error) {
	if q.TenantID == "" {
		return nil, errNoTenant
	}

	body := map[string]any{
		"vector":       q.Vector,
		"limit":        q.Limit,
		"with_payload": true,
		"filter":       tenantFilter(q.TenantID, q.DocumentIDs...),
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), body, &resp)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]domain.RetrievalResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.RetrievalResult{Chunk: r.Payload.chunk(), Score: similarity.Clamp(r.Score)})
	}
	return results, nil
}

// DeleteByDocument counts then deletes the document's points.
func (s *Store) DeleteByDocument(ctx context.Context, documentID, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, errNoTenant
	}
	f := tenantFilter(tenantID)
	f.Must = append(f.Must, matchValue("document_id", documentID))

	var count struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionPath("/points/count"),
		map[string]any{"filter": f, "exact": true}, &count)
	if errors.Is(err, errCollectionMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	if count.Result.Count == 0 {
		return 0, nil
	}

	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"),
		map[string]any{"filter": f}, nil); err != nil {
		return 0, fmt.Errorf("delete points: %w", err)
	}
	return count.Result.Count, nil
}

// Scan pages through the matching points.
func (s *Store) Scan(ctx context.Context, sf domain.ScanFilter) ([]domain.Chunk, error) {
	if sf.TenantID == "" {
		return nil, errNoTenant
	}
	f := tenantFilter(sf.TenantID)
	if sf.DocumentID != "" {
		f.Must = append(f.Must, matchValue("document_id", sf.DocumentID))
	}

	var chunks []domain.Chunk
	var offset any
	for {
		body := map[string]any{
			"filter":       f,
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload payload `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), body, &resp)
		if errors.Is(err, errCollectionMissing) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}
		for _, p := range resp.Result.Points {
			chunks = append(chunks, p.Payload.chunk())
		}
		if resp.Result.NextPageOffset == nil {
			return chunks, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Ping checks the cluster health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, s.baseURL+"/healthz", nil, nil)
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

func (s *Store) collectionPath(suffix string) string {
	return s.baseURL + "/collections/" + s.collection + suffix
}

// do sends a JSON request and decodes the response into out when non-nil.
// Transport failures, throttling and 5xx wrap domain.ErrUpstreamUnavailable.
func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s: %w", domain.ErrUpstreamUnavailable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		status := fmt.Errorf("qdrant %s %s: status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(msg)))
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %w", errCollectionMissing, status)
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w: %w", domain.ErrUpstreamUnavailable, domain.ErrRateLimited, status)
		case resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, status)
		default:
			return status
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
