// Package ollama answers prompts with a local Ollama chat model.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/upstream"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model (default: llama3.2).
	Model string

	Timeout time.Duration

	// RequestsPerSecond throttles completions. Zero means unlimited.
	RequestsPerSecond float64
}

// LLMService runs non-streaming /api/chat calls.
type LLMService struct {
	api   *upstream.Client
	model string
}

type chatOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api: upstream.NewClient("ollama", cfg.BaseURL, cfg.Timeout, nil,
			upstream.NewRateLimiter(cfg.RequestsPerSecond, 1)),
		model: cfg.Model,
	}
}

// Complete sends the system and user turns and returns the reply with the
// evaluation counts Ollama reports.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (*driven.Completion, error) {
	var resp chatResponse
	err := s.api.Post(ctx, "/api/chat", chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: &chatOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	// Ollama reports a missing model as a 200 with an error field.
	if resp.Error != "" {
		return nil, errors.New("ollama error: " + resp.Error)
	}

	return &driven.Completion{
		Text:         strings.TrimSpace(resp.Message.Content),
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		Truncated:    resp.DoneReason == "length",
	}, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.api.Get(ctx, "/api/tags", nil); err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
