package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// AIConfigValidator checks provider settings against the live provider
// before they are saved. A nil settings pointer is accepted as "not set".
type AIConfigValidator interface {
	// ValidateEmbedding fails with domain.ErrEmbeddingUnavailable when
	// the provider cannot embed (unreachable, bad key, Anthropic).
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM fails with domain.ErrLLMUnavailable when the provider
	// cannot answer.
	ValidateLLM(settings *domain.LLMSettings) error
}
