package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentLimits bounds what a tenant may upload.
type DocumentLimits struct {
	MaxDocuments        int
	MaxPagesPerDocument int
}

// DocumentService ingests uploads and manages a tenant's stored documents.
// The vector store is the only persistence: documents are reconstructed
// from their chunks.
type DocumentService struct {
	extractor driven.TextExtractor
	pipeline  driven.PageProcessorPipeline
	embedder  driven.EmbeddingService
	store     driven.VectorStore
	limits    DocumentLimits
	newID     func() string
	now       func() time.Time
}

// DocumentOption configures a DocumentService.
type DocumentOption func(*DocumentService)

// WithIDGenerator overrides the document id generator.
func WithIDGenerator(fn func() string) DocumentOption {
	return func(s *DocumentService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithDocumentClock overrides the time source used for processing time.
func WithDocumentClock(clock driven.Clock) DocumentOption {
	return func(s *DocumentService) {
		if clock != nil {
			s.now = clock.Now
		}
	}
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	extractor driven.TextExtractor,
	pipeline driven.PageProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	limits DocumentLimits,
	opts ...DocumentOption,
) *DocumentService {
	s := &DocumentService{
		extractor: extractor,
		pipeline:  pipeline,
		embedder:  embedder,
		store:     store,
		limits:    limits,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates, chunks, embeds and stores an uploaded file.
func (s *DocumentService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if req.TenantID == "" {
		return nil, domain.NewValidationError(domain.ReasonValidation, "tenant is required")
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	start := s.now()

	count, err := s.Count(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if count >= s.limits.MaxDocuments {
		return nil, domain.NewLimitError(
			fmt.Sprintf("Document limit reached (%d). Delete a document first.", s.limits.MaxDocuments))
	}

	if err := s.extractor.Validate(req.Filename, int64(len(req.Content))); err != nil {
		return nil, err
	}
	pages, err := s.extractor.ExtractPages(ctx, req.Content)
	if err != nil {
		return nil, err
	}
	if len(pages) > s.limits.MaxPagesPerDocument {
		return nil, domain.NewDocumentTooLargeError(fmt.Sprintf("Document has %d pages, maximum allowed is %d",
			len(pages), s.limits.MaxPagesPerDocument))
	}

	doc := domain.ProcessedDocument{
		ID:            s.newID(),
		Title:         req.Title,
		TenantID:      req.TenantID,
		PageCount:     len(pages),
		FileSizeBytes: int64(len(req.Content)),
		UploadedAt:    start,
	}
	if doc.Title == "" {
		doc.Title = TitleFromFilename(req.Filename)
	}
	logger.Info("Ingesting %q (%d pages) as %s", doc.Title, doc.PageCount, doc.ID)

	doc.Chunks, err = s.chunkPages(ctx, pages, domain.PageMeta{
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		TenantID:      doc.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("chunk pages: %w", err)
	}
	doc.Sections = distinctSections(doc.Chunks)

	if len(doc.Chunks) > 0 {
		texts := make([]string, len(doc.Chunks))
		for i, c := range doc.Chunks {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, domain.NewUpstreamError("embedding chunks failed", err)
		}
		if err := s.store.Upsert(ctx, doc.Chunks, vectors); err != nil {
			return nil, domain.NewUpstreamError("storing chunks failed", err)
		}
	}

	result := &domain.IngestResult{
		ID:             doc.ID,
		Title:          doc.Title,
		PageCount:      doc.PageCount,
		ChunkCount:     len(doc.Chunks),
		Sections:       doc.Sections,
		ProcessingTime: s.now().Sub(start),
	}
	logger.Info("Created %d searchable chunks for %s in %v", result.ChunkCount, doc.ID, result.ProcessingTime)
	return result, nil
}

// chunkPages runs every page through the pipeline concurrently and
// concatenates the results in page order. Pages without text yield nothing.
func (s *DocumentService) chunkPages(
	ctx context.Context, pages []domain.Page, meta domain.PageMeta,
) ([]domain.Chunk, error) {
	perPage := make([][]domain.Chunk, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		g.Go(func() error {
			chunks, err := s.pipeline.Process(gctx, page, meta)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.Number, err)
			}
			perPage[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Chunk
	for _, chunks := range perPage {
		all = append(all, chunks...)
	}
	return all, nil
}

// List returns the tenant's documents.
func (s *DocumentService) List(ctx context.Context, tenantID string) ([]domain.StoredDocument, error) {
	chunks, err := s.scan(ctx, domain.ScanFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return domain.SummariseChunks(chunks), nil
}

// Get returns one document with its chunks.
func (s *DocumentService) Get(ctx context.Context, tenantID, documentID string) (*domain.DocumentDetail, error) {
	chunks, err := s.scan(ctx, domain.ScanFilter{TenantID: tenantID, DocumentID: documentID})
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return &domain.DocumentDetail{
		StoredDocument: domain.SummariseChunks(chunks)[0],
		Chunks:         chunks,
	}, nil
}

// Delete removes every chunk of the document.
func (s *DocumentService) Delete(ctx context.Context, tenantID, documentID string) (int, error) {
	if tenantID == "" {
		return 0, domain.NewValidationError(domain.ReasonValidation, "tenant is required")
	}
	if s.store == nil {
		return 0, domain.ErrVectorStoreUnavailable
	}
	removed, err := s.store.DeleteByDocument(ctx, documentID, tenantID)
	if err != nil {
		return 0, domain.NewUpstreamError("deleting document failed", err)
	}
	if removed == 0 {
		return 0, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	logger.Info("Deleted document %s (%d chunks)", documentID, removed)
	return removed, nil
}

// Count returns how many distinct documents the tenant has.
func (s *DocumentService) Count(ctx context.Context, tenantID string) (int, error) {
	docs, err := s.List(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *DocumentService) scan(ctx context.Context, filter domain.ScanFilter) ([]domain.Chunk, error) {
	if filter.TenantID == "" {
		return nil, domain.NewValidationError(domain.ReasonValidation, "tenant is required")
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	chunks, err := s.store.Scan(ctx, filter)
	if err != nil {
		return nil, domain.NewUpstreamError("reading documents failed", err)
	}
	return chunks, nil
}

// TitleFromFilename derives a display title: the base name without its
// .pdf extension, underscores turned into spaces.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return strings.ReplaceAll(base, "_", " ")
}

func distinctSections(chunks []domain.Chunk) []string {
	var sections []string
	seen := make(map[string]bool)
	for _, c := range chunks {
		if c.SectionTitle != "" && !seen[c.SectionTitle] {
			seen[c.SectionTitle] = true
			sections = append(sections, c.SectionTitle)
		}
	}
	return sections
}
