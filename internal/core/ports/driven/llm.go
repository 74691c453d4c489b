package driven

import "context"

// LLMService completes grounded prompts (OpenAI, Anthropic or Ollama).
//
// Transient failures (throttling, 5xx, timeouts) must wrap
// domain.ErrUpstreamUnavailable, and throttling additionally
// domain.ErrRateLimited, so callers can tell them from content errors.
type LLMService interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	ModelName() string

	// Ping checks the key and connectivity without generating text.
	Ping(ctx context.Context) error

	Close() error
}

// CompletionRequest is a single-turn completion.
type CompletionRequest struct {
	// System is the grounding instruction.
	System string

	// User carries the question and the context block.
	User string

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// MaxTokens caps the reply; 0 leaves it to the provider.
	MaxTokens int
}

// Completion is the model's reply. Token counts are the provider's own
// figures, or 0 when it reports none.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int

	// Truncated is set when generation stopped at MaxTokens.
	Truncated bool
}
