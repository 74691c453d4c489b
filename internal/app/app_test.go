package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/testutil/pdftest"
)

func noEnv(string) (string, bool) { return "", false }

// fakeOllama serves constant 384-dimension embeddings and a fixed chat reply.
func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return fakeOllamaRecording(t, reply, nil)
}

// fakeOllamaRecording is fakeOllama that also sends each chat user turn
// to prompts when it is non-nil.
func fakeOllamaRecording(t *testing.T, reply string, prompts chan<- string) *httptest.Server {
	t.Helper()

	vector := make([]float64, 384)
	for i := range vector {
		vector[i] = 0.05
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": vector}) //nolint:errcheck
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if prompts != nil {
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 {
				prompts <- req.Messages[len(req.Messages)-1].Content
			}
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))
}

func newServices(t *testing.T, dir string) *cli.Services {
	t.Helper()
	svc, err := New(context.Background(), cli.Options{ConfigDir: dir},
		WithTokenizer(tokenizer.Estimator{}), WithEnv(noEnv))
	require.NoError(t, err)
	if svc.Close != nil {
		t.Cleanup(svc.Close)
	}
	return svc
}

func TestNew_IngestAndAsk(t *testing.T) {
	srv := fakeOllama(t, "Either party may terminate with thirty days notice [Page 1].")
	dir := t.TempDir()
	writeConfig(t, dir, fmt.Sprintf(`
[tenant]
id = "acme"

[embedding]
provider = "ollama"
base_url = %q

[llm]
provider = "ollama"
model = "llama3.2"
base_url = %q

[vector_store]
backend = "memory"
`, srv.URL, srv.URL))

	svc := newServices(t, dir)
	require.NotNil(t, svc.Documents)
	require.NotNil(t, svc.Query)
	ctx := context.Background()

	require.NotNil(t, svc.Health)
	readiness := svc.Health.Ready(ctx)
	assert.True(t, readiness.Ready, "%+v", readiness.Components)
	assert.Len(t, readiness.Components, 3)

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "acme", settings.TenantID)

	result, err := svc.Documents.Ingest(ctx, domain.IngestRequest{
		TenantID: "acme",
		Filename: "lease.pdf",
		Content:  pdftest.Build("Either party may terminate with thirty days notice.", "Rent is due monthly."),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount)
	assert.GreaterOrEqual(t, result.ChunkCount, 2)

	resp, err := svc.Query.Ask(ctx, domain.QueryRequest{
		TenantID: "acme",
		Question: "How can the lease be terminated?",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "thirty days notice")
	assert.NotEmpty(t, resp.Citations)

	snap, err := svc.Usage.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Queries)
	assert.Equal(t, 1, snap.DocumentsStored)

	_, err = svc.Query.Ask(ctx, domain.QueryRequest{
		TenantID: "globex",
		Question: "How can the lease be terminated?",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNew_ShowRelevanceReachesPrompt(t *testing.T) {
	prompts := make(chan string, 1)
	srv := fakeOllamaRecording(t, "Rent is due monthly [Source 1].", prompts)
	dir := t.TempDir()
	writeConfig(t, dir, fmt.Sprintf(`
[embedding]
provider = "ollama"
base_url = %q

[llm]
provider = "ollama"
base_url = %q

[vector_store]
backend = "memory"

[retrieval]
show_relevance = true
`, srv.URL, srv.URL))

	svc := newServices(t, dir)
	ctx := context.Background()
	_, err := svc.Documents.Ingest(ctx, domain.IngestRequest{
		TenantID: "default",
		Filename: "lease.pdf",
		Content:  pdftest.Build("Rent is due monthly."),
	})
	require.NoError(t, err)

	_, err = svc.Query.Ask(ctx, domain.QueryRequest{TenantID: "default", Question: "When is the rent due?"})
	require.NoError(t, err)

	assert.Contains(t, <-prompts, "(relevance ")
}

func TestNew_DefaultsDataDir(t *testing.T) {
	srv := fakeOllama(t, "unused")
	dir := t.TempDir()
	writeConfig(t, dir, fmt.Sprintf(`
[embedding]
provider = "ollama"
base_url = %q
`, srv.URL))

	newServices(t, dir)

	_, err := os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestNew_UnusableEmbeddingKeepsSettings(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[embedding]
provider = "anthropic"
`)

	svc := newServices(t, dir)

	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Query)
	assert.Nil(t, svc.Documents)
}

func TestNew_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[chunking]
max_tokens = 100
overlap_tokens = 100
`)

	_, err := New(context.Background(), cli.Options{ConfigDir: dir}, WithEnv(noEnv))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
