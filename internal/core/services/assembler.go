package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// AssemblerConfig configures answer generation.
type AssemblerConfig struct {
	Temperature float64
	MaxTokens   int
	Pricing     domain.PricingSettings

	// ShowRelevance adds the relevance percentage to each source label.
	ShowRelevance bool
}

// AnswerAssembler turns a question and ranked chunks into a grounded answer.
type AnswerAssembler struct {
	llm         driven.LLMService
	tokenizer   driven.Tokenizer
	promptStore driven.PromptStore
	cfg         AssemblerConfig
}

// NewAnswerAssembler creates an assembler.
func NewAnswerAssembler(llm driven.LLMService, tokenizer driven.Tokenizer, cfg AssemblerConfig) *AnswerAssembler {
	return &AnswerAssembler{
		llm:       llm,
		tokenizer: tokenizer,
		cfg:       cfg,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (a *AnswerAssembler) SetPromptStore(store driven.PromptStore) {
	a.promptStore = store
}

// Assemble produces the answer. With no chunks it returns the fixed
// insufficient-evidence answer without calling the LLM.
func (a *AnswerAssembler) Assemble(
	ctx context.Context, question string, chunks []domain.RetrievalResult,
) (*domain.Answer, error) {
	if len(chunks) == 0 {
		return &domain.Answer{
			Text:       domain.InsufficientEvidenceAnswer,
			Confidence: domain.ConfidenceLow,
		}, nil
	}
	if a.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	system := a.prompt(driven.PromptAnswerSystem, domain.AnswerSystemPrompt)
	user := fmt.Sprintf(a.prompt(driven.PromptAnswerUser, domain.AnswerUserTemplate),
		question, BuildContext(chunks, a.cfg.ShowRelevance))

	inputTokens := a.tokenizer.Count(system + user)
	logger.Debug("Prompt: %d sources, %d input tokens", len(chunks), inputTokens)

	reply, err := a.llm.Complete(ctx, driven.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	if reply.Truncated {
		logger.Warn("Answer hit the %d token ceiling and may be cut short", a.cfg.MaxTokens)
	}

	outputTokens := a.tokenizer.Count(reply.Text)
	if reply.InputTokens > 0 || reply.OutputTokens > 0 {
		logger.Debug("Provider usage: %d input, %d output tokens (billed %d, %d)",
			reply.InputTokens, reply.OutputTokens, inputTokens, outputTokens)
	}

	return &domain.Answer{
		Text:         reply.Text,
		Confidence:   ParseConfidence(reply.Text),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      a.cfg.Pricing.Cost(inputTokens, outputTokens),
	}, nil
}

// prompt loads a template from the store, falling back to the built-in one.
func (a *AnswerAssembler) prompt(name, fallback string) string {
	if a.promptStore == nil {
		return fallback
	}
	p, err := a.promptStore.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		logger.Warn("Using built-in %s prompt: %v", name, err)
		return fallback
	}
	return p
}

// BuildContext renders the numbered source blocks, in rank order.
func BuildContext(chunks []domain.RetrievalResult, showRelevance bool) string {
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		title := c.DocumentTitle
		if title == "" {
			title = "Unknown"
		}
		var label strings.Builder
		fmt.Fprintf(&label, "[Source %d] %s, p.%d", i+1, title, c.PageNumber)
		if c.SectionTitle != "" {
			fmt.Fprintf(&label, ", section: %s", c.SectionTitle)
		}
		if showRelevance {
			fmt.Fprintf(&label, " (relevance %.0f%%)", c.Score*100)
		}
		blocks = append(blocks, label.String()+":\n"+c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// confidenceRule maps answer text to a confidence level when it matches.
type confidenceRule func(lower string) (domain.Confidence, bool)

var explicitConfidence = regexp.MustCompile(`confidence:\s*(high|medium|low)`)

// confidenceRules are tried in order; the first match wins.
var confidenceRules = []confidenceRule{
	func(lower string) (domain.Confidence, bool) {
		m := explicitConfidence.FindStringSubmatch(lower)
		if m == nil {
			return "", false
		}
		return domain.ParseConfidence(m[1])
	},
	containsAny(domain.ConfidenceLow, "cannot find sufficient", "insufficient"),
	containsAny(domain.ConfidenceHigh, "clearly", "explicitly"),
}

func containsAny(level domain.Confidence, phrases ...string) confidenceRule {
	return func(lower string) (domain.Confidence, bool) {
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return level, true
			}
		}
		return "", false
	}
}

// ParseConfidence reads the confidence of an answer: the explicit
// "Confidence: x" marker when present, otherwise inferred from wording,
// defaulting to medium.
func ParseConfidence(text string) domain.Confidence {
	lower := strings.ToLower(text)
	for _, rule := range confidenceRules {
		if c, ok := rule(lower); ok {
			return c
		}
	}
	return domain.ConfidenceMedium
}
