package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	resp    *domain.QueryResponse
	err     error
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs       []domain.StoredDocument
	detail     *domain.DocumentDetail
	err        error
	lastTenant string
}

func (m *mockDocumentService) Ingest(_ context.Context, _ domain.IngestRequest) (*domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) List(_ context.Context, tenantID string) ([]domain.StoredDocument, error) {
	m.lastTenant = tenantID
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, tenantID, _ string) (*domain.DocumentDetail, error) {
	m.lastTenant = tenantID
	if m.detail == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.detail, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, _ string) (int, error) {
	return 0, m.err
}

func (m *mockDocumentService) Count(_ context.Context, _ string) (int, error) {
	return len(m.docs), m.err
}

// mockUsageService implements driving.UsageService for testing.
type mockUsageService struct {
	snap *domain.UsageSnapshot
	err  error
}

func (m *mockUsageService) Snapshot(_ context.Context, _ string) (*domain.UsageSnapshot, error) {
	return m.snap, m.err
}

func (m *mockUsageService) Reset() {}

type mockHealthService struct {
	readiness domain.Readiness
}

func (m *mockHealthService) Ready(context.Context) domain.Readiness { return m.readiness }
