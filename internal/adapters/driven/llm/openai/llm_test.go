package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "  The notice period is 30 days [Source 1]. "}, "finish_reason": "stop"}
  ],
  "usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
}`

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})

	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test"})

	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Nil(t, svc.limiter)
	assert.NoError(t, svc.Close())
}

func TestComplete_SendsMessages(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	})

	answer, err := svc.Complete(context.Background(), driven.CompletionRequest{
		System:      "Answer from sources only.",
		User:        "Question: notice?",
		Temperature: 0.1,
		MaxTokens:   1000,
	})

	require.NoError(t, err)
	assert.Equal(t, &driven.Completion{
		Text:         "The notice period is 30 days [Source 1].",
		InputTokens:  10,
		OutputTokens: 8,
	}, answer)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Answer from sources only.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestComplete_Truncated(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"The"},"finish_reason":"length"}]}`)
	})

	answer, err := svc.Complete(context.Background(), driven.CompletionRequest{User: "q", MaxTokens: 1})

	require.NoError(t, err)
	assert.True(t, answer.Truncated)
	assert.Zero(t, answer.InputTokens)
}

func TestComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantUp      bool
		wantLimited bool
	}{
		{"throttled", http.StatusTooManyRequests, true, true},
		{"server error", http.StatusServiceUnavailable, true, false},
		{"bad key", http.StatusUnauthorized, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"test"}}`)
			})

			_, err := svc.Complete(context.Background(), driven.CompletionRequest{User: "q"})

			require.Error(t, err)
			assert.Equal(t, 1, calls, "SDK retries must be disabled")
			assert.Equal(t, tt.wantUp, domain.IsRetryable(err))
			assert.Equal(t, tt.wantLimited, errors.Is(err, domain.ErrRateLimited))
		})
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: url})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{User: "q"})

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestComplete_NoChoices(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := svc.Complete(context.Background(), driven.CompletionRequest{User: "q"})

	assert.ErrorContains(t, err, "no choices")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}]}`)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}
