package cli

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	for key, want := range map[string]string{
		"":                        "****",
		"abc123":                  "****",
		"12345678":                "****",
		"sk-ant-api03-xyzw":       "sk-a...xyzw",
		"sk-proj-0123456789abcde": "sk-p...bcde",
	} {
		assert.Equal(t, want, maskAPIKey(key), "key %q", key)
	}
}

func TestParseChoice(t *testing.T) {
	// Three options, default 2.
	cases := []struct {
		input string
		want  int
	}{
		{"", 2},
		{"  ", 2},
		{"1", 1},
		{"3", 3},
		{" 3 ", 3},
		{"0", 2},
		{"4", 2},
		{"-1", 2},
		{"two", 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseChoice(c.input, 3, 2), "input %q", c.input)
	}
}

func TestReadPassword_FallsBackToReader(t *testing.T) {
	in := strings.NewReader("sk-secret\n")
	assert.Equal(t, "sk-secret", readPassword(in, bufio.NewReader(in)))
}

func TestSettingsShowCmd(t *testing.T) {
	t.Run("prints sections and masks keys", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.settings.LLM.APIKey = "sk-1234567890abcdef"

		out, _, err := execute(t, "", "settings", "show")

		require.NoError(t, err)
		assert.Contains(t, out, "[Embedding]")
		assert.Contains(t, out, "Provider: OpenAI (cloud)")
		assert.Contains(t, out, "API Key: sk-1...cdef")
		assert.Contains(t, out, "Chunk size: 600 tokens (100 overlap)")
		assert.Contains(t, out, "Configuration is valid.")
		assert.NotContains(t, out, "sk-1234567890abcdef")
	})

	t.Run("reports validation problems", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.validateErr = errors.New("LLM API key missing")

		out, _, err := execute(t, "", "settings")

		require.NoError(t, err)
		assert.Contains(t, out, "Warning: LLM API key missing")
	})
}

func TestSettingsEmbeddingCmd(t *testing.T) {
	t.Run("selects provider with default model", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, _, err := execute(t, "2\n\nsk-key\n", "settings", "embedding")

		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOpenAI, ts.settings.embeddingProvider)
		assert.Equal(t, "text-embedding-3-small", ts.settings.model)
		assert.Equal(t, "sk-key", ts.settings.apiKey)
		assert.Contains(t, out, "Validating configuration... OK")
		assert.Contains(t, out, "re-ingesting")
	})

	t.Run("ping failure is returned", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.pingErr = errors.New("connection refused")

		out, _, err := execute(t, "1\nnomic-embed-text\n", "settings", "embedding")

		require.Error(t, err)
		assert.Contains(t, out, "FAILED: connection refused")
		assert.Equal(t, domain.AIProviderOllama, ts.settings.embeddingProvider)
		assert.Equal(t, "nomic-embed-text", ts.settings.model)
	})
}

func TestSettingsLLMCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "3\nclaude-3-5-sonnet-latest\n\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, ts.settings.llmProvider)
	assert.Equal(t, "claude-3-5-sonnet-latest", ts.settings.model)
	assert.Empty(t, ts.settings.apiKey)
	assert.Contains(t, out, "LLM provider configured: Anthropic (cloud)")
}
