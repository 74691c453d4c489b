package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

type mockQueryService struct {
	resp    *domain.QueryResponse
	err     error
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

type mockDocumentService struct {
	docs       []domain.StoredDocument
	detail     *domain.DocumentDetail
	ingested   *domain.IngestResult
	removed    int
	err        error
	lastIngest domain.IngestRequest
	lastTenant string
}

func (m *mockDocumentService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.lastIngest = req
	return m.ingested, m.err
}

func (m *mockDocumentService) List(_ context.Context, tenantID string) ([]domain.StoredDocument, error) {
	m.lastTenant = tenantID
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, tenantID, _ string) (*domain.DocumentDetail, error) {
	m.lastTenant = tenantID
	return m.detail, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, tenantID, _ string) (int, error) {
	m.lastTenant = tenantID
	return m.removed, m.err
}

func (m *mockDocumentService) Count(_ context.Context, _ string) (int, error) {
	return len(m.docs), m.err
}

type mockUsageService struct {
	snap *domain.UsageSnapshot
	err  error
}

func (m *mockUsageService) Snapshot(_ context.Context, _ string) (*domain.UsageSnapshot, error) {
	return m.snap, m.err
}

func (m *mockUsageService) Reset() {}

type mockSettingsService struct {
	settings    domain.Settings
	validateErr error
	pingErr     error

	embeddingProvider domain.AIProvider
	llmProvider       domain.AIProvider
	model             string
	apiKey            string
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llmProvider, m.model, m.apiKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embeddingProvider, m.model, m.apiKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error              { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.pingErr
}
func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

type mockHealthService struct {
	readiness domain.Readiness
}

func (m *mockHealthService) Ready(context.Context) domain.Readiness { return m.readiness }

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	query     *mockQueryService
	documents *mockDocumentService
	usage     *mockUsageService
	settings  *mockSettingsService
	health    *mockHealthService
}

// setupTestServices installs populated mocks and returns them with a cleanup.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		query: &mockQueryService{
			resp: &domain.QueryResponse{
				Answer:     "The notice period is 30 days [Page 4].",
				Confidence: domain.ConfidenceHigh,
				Citations: []domain.Citation{
					{DocumentID: "doc-1", DocumentTitle: "Lease Agreement", PageNumber: 4, SectionTitle: "Termination", Score: 0.82},
				},
				Usage: domain.QueryUsage{
					InputTokens: 900, OutputTokens: 40, CostUSD: 0.00016,
					Timing: domain.QueryTiming{Total: 1500 * time.Millisecond},
				},
			},
		},
		documents: &mockDocumentService{
			docs: []domain.StoredDocument{
				{ID: "doc-1", Title: "Lease Agreement", PageCount: 12, ChunkCount: 30},
			},
			detail: &domain.DocumentDetail{
				StoredDocument: domain.StoredDocument{
					ID: "doc-1", Title: "Lease Agreement", PageCount: 1, ChunkCount: 1,
					Sections: []string{"Termination"},
				},
				Chunks: []domain.Chunk{
					{ID: "doc-1_p1_c0", PageNumber: 1, TokenCount: 5, Text: "Either party may terminate."},
				},
			},
			ingested: &domain.IngestResult{
				ID: "doc-9", Title: "Contract", PageCount: 3, ChunkCount: 7,
				Sections: []string{"1. Definitions"}, ProcessingTime: 250 * time.Millisecond,
			},
			removed: 7,
		},
		usage: &mockUsageService{
			snap: &domain.UsageSnapshot{
				Period: "2026-10-14", Queries: 5, MaxQueries: 100,
				CostUSD: 0.012, MaxCostUSD: 1, TotalTokens: 4200,
				InputTokens: 4000, OutputTokens: 200, DocumentsStored: 2,
			},
		},
		settings: &mockSettingsService{settings: domain.DefaultSettings()},
		health: &mockHealthService{readiness: domain.Readiness{
			Ready: true,
			Components: []domain.ComponentStatus{
				{Name: domain.ComponentVectorStore, Ready: true},
				{Name: domain.ComponentEmbedding, Ready: true},
				{Name: domain.ComponentLLM, Ready: true},
			},
		}},
	}

	SetServices(&Services{
		Documents: ts.documents,
		Query:     ts.query,
		Usage:     ts.usage,
		Settings:  ts.settings,
		Health:    ts.health,
	})

	return ts, func() {
		SetServices(&Services{})
	}
}

// execute runs the root command and returns stdout and stderr.
// Flag variables are reset afterwards since cobra keeps them between runs.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags() {
	flagTenant = ""
	flagVerbose = false
	flagLogLevel = ""
	mcpPort = 0
	mcpHost = "localhost"
	flagConfigDir = ""
	askDocuments = nil
	statusJSON = false
	askCitations = 0
	askJSON = false
	ingestTitle = ""
	ingestJSON = false
	documentJSON = false
	documentChunks = false
	usageJSON = false
}
