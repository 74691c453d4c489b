package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building the adapter and
// pinging it. It backs `docqa settings embedding` and `docqa settings llm`.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator with the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout returns a copy of v that waits at most d for each ping.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d <= 0 {
		return v
	}
	return &ConfigValidator{timeout: d}
}

// ValidateEmbedding pings the embedding provider. Unconfigured settings
// pass; Anthropic is rejected since it has no embedding endpoint.
// A model without a known vector size is accepted with a warning, because
// the stored chunks must be re-ingested if the size ever changes.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil {
		return nil
	}
	if config.Provider == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrEmbeddingUnavailable)
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := createAndValidateEmbedding(ctx, config)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	if _, known := domain.EmbeddingDimensions()[svc.ModelName()]; !known {
		logger.Warn("Embedding model %q has no known size, assuming %d dimensions",
			svc.ModelName(), svc.Dimensions())
	}
	return nil
}

// ValidateLLM pings the LLM provider. Unconfigured settings pass.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := createAndValidateLLM(ctx, config)
	if svc != nil {
		svc.Close()
	}
	return err
}
