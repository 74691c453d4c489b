package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question     string   `json:"question" jsonschema:"the question to answer from the documents (10-500 characters)"`
	DocumentIDs  []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these document ids"`
	MaxCitations int      `json:"max_citations,omitempty" jsonschema:"maximum number of citations, 1-10"`
	Tenant       string   `json:"tenant,omitempty" jsonschema:"tenant to query (default: server tenant)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string            `json:"answer"`
	Confidence string            `json:"confidence"`
	Citations  []domain.Citation `json:"citations"`
	CostUSD    float64           `json:"estimated_cost_usd"`
	Warning    string            `json:"warning,omitempty"`
}

// TenantInput selects a tenant for listing tools.
type TenantInput struct {
	Tenant string `json:"tenant,omitempty" jsonschema:"tenant to inspect (default: server tenant)"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []domain.StoredDocument `json:"documents"`
	Count     int                     `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question strictly from the uploaded documents, with page citations",
	}, s.handleAsk)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the uploaded documents with page and chunk counts",
		}, s.handleListDocuments)
	}

	if s.ports.Usage != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "usage",
			Description: "Report today's query count, token usage and spend against the daily limits",
		}, s.handleUsage)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Query.Ask(ctx, domain.QueryRequest{
		TenantID:     s.ports.tenant(input.Tenant),
		Question:     input.Question,
		DocumentIDs:  input.DocumentIDs,
		MaxCitations: input.MaxCitations,
	})
	if err != nil {
		return nil, AskOutput{}, describe(err)
	}

	citations := resp.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}

	return nil, AskOutput{
		Answer:     resp.Answer,
		Confidence: string(resp.Confidence),
		Citations:  citations,
		CostUSD:    resp.Usage.CostUSD,
		Warning:    resp.Warning,
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TenantInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx, s.ports.tenant(input.Tenant))
	if err != nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("listing documents: %w", err)
	}
	if docs == nil {
		docs = []domain.StoredDocument{}
	}

	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}

// handleUsage handles the usage tool invocation.
func (s *Server) handleUsage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TenantInput,
) (*mcp.CallToolResult, domain.UsageSnapshot, error) {
	snap, err := s.ports.Usage.Snapshot(ctx, s.ports.tenant(input.Tenant))
	if err != nil {
		return nil, domain.UsageSnapshot{}, fmt.Errorf("reading usage: %w", err)
	}
	return nil, *snap, nil
}

// describe turns a QueryError into a tool error the assistant can act on.
func describe(err error) error {
	var qerr *domain.QueryError
	if !errors.As(err, &qerr) {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", qerr.Reason, qerr.Message)
	for _, s := range qerr.Suggestions {
		fmt.Fprintf(&b, "\n- %s", s)
	}
	return errors.New(b.String())
}
