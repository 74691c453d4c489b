package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"docqa://documents/doc-123", "doc-123"},
		{"docqa://documents/", ""},
		{"docqa://documents/doc-1/chunks", ""},
		{"docqa://usage", ""},
		{"other://documents/doc-123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns document json", func(t *testing.T) {
		docs := &mockDocumentService{
			detail: &domain.DocumentDetail{
				StoredDocument: domain.StoredDocument{ID: "doc-1", Title: "Lease", PageCount: 2},
			},
		}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Document: docs, Tenant: "acme"})
		require.NoError(t, err)

		res, err := server.handleDocumentResource(ctx, makeReadResourceRequest("docqa://documents/doc-1"))
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		assert.Equal(t, "application/json", res.Contents[0].MIMEType)
		assert.Contains(t, res.Contents[0].Text, `"title": "Lease"`)
		assert.Equal(t, "acme", docs.lastTenant)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, makeReadResourceRequest("docqa://documents/missing"))
		assert.Error(t, err)
	})

	t.Run("malformed uri is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, makeReadResourceRequest("docqa://documents/a/b"))
		assert.Error(t, err)
	})
}

func TestServer_handleUsageResource(t *testing.T) {
	usage := &mockUsageService{snap: &domain.UsageSnapshot{Period: "2026-10-14", Queries: 2}}
	server, err := NewServer(&Ports{Query: &mockQueryService{}, Usage: usage})
	require.NoError(t, err)

	res, err := server.handleUsageResource(context.Background(), makeReadResourceRequest("docqa://usage"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"period": "2026-10-14"`)
}
