package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil query service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("query only is valid", func(t *testing.T) {
		ports := &Ports{Query: &mockQueryService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Query:    &mockQueryService{},
			Document: &mockDocumentService{},
			Usage:    &mockUsageService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestPorts_tenant(t *testing.T) {
	assert.Equal(t, "acme", (&Ports{}).tenant("acme"))
	assert.Equal(t, "server", (&Ports{Tenant: "server"}).tenant(""))
	assert.Equal(t, "default", (&Ports{}).tenant(""))
}

// connect wires a client session to the server over in-memory transports.
func connect(t *testing.T, ports *Ports) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server, err := NewServer(ports)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err = server.Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

func TestServer_Session(t *testing.T) {
	ctx := context.Background()
	ports := &Ports{
		Query:    &mockQueryService{resp: &domain.QueryResponse{Answer: "Six months.", Confidence: domain.ConfidenceHigh}},
		Document: &mockDocumentService{},
		Usage:    &mockUsageService{snap: &domain.UsageSnapshot{Period: "2026-10-14", Queries: 3}},
	}
	session := connect(t, ports)

	t.Run("lists registered tools", func(t *testing.T) {
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"ask", "list_documents", "usage"}, names)
	})

	t.Run("calls ask", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "ask",
			Arguments: map[string]any{"question": "What is the notice period?"},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)

		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		var out AskOutput
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, "Six months.", out.Answer)
		assert.Equal(t, "high", out.Confidence)
	})

	t.Run("reads usage resource", func(t *testing.T) {
		res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "docqa://usage"})
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		assert.Contains(t, res.Contents[0].Text, `"queries_today": 3`)
	})
}

func TestServer_SessionToolError(t *testing.T) {
	ports := &Ports{
		Query: &mockQueryService{err: domain.NewLimitError("Daily query limit reached (100)")},
	}
	session := connect(t, ports)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"question": "What is the notice period?"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "limit_exceeded")
}

func TestServer_Instructions(t *testing.T) {
	session := connect(t, &Ports{Query: &mockQueryService{}})

	result := session.InitializeResult()
	require.NotNil(t, result)
	assert.Equal(t, "docqa", result.ServerInfo.Name)
	assert.Contains(t, result.Instructions, "list_documents")
}

func TestServer_Healthz(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestServer_Readyz(t *testing.T) {
	components := []domain.ComponentStatus{
		{Name: domain.ComponentVectorStore, Ready: true},
		{Name: domain.ComponentEmbedding, Ready: true},
		{Name: domain.ComponentLLM, Error: "status 401"},
	}

	tests := []struct {
		name       string
		readiness  domain.Readiness
		wantStatus int
	}{
		{"ready", domain.Readiness{Ready: true, Components: components[:2]}, http.StatusOK},
		{"llm down", domain.Readiness{Components: components}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(&Ports{
				Query:  &mockQueryService{},
				Health: &mockHealthService{readiness: tt.readiness},
			})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var got domain.Readiness
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.readiness, got)
		})
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownGrace + time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServer_RunHTTPBadAddress(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}})
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}
