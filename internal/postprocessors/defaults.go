package postprocessors

import (
	"fmt"
	"math"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/section"
)

// DefaultPipeline lists the processors every page runs through.
// The chunker creates chunks; section stamps them with the page title.
var DefaultPipeline = []string{"chunker", "section"}

// RegisterDefaults registers the built-in processors. tok sizes chunks;
// nil falls back to the chunker's word count.
func RegisterDefaults(r *Registry, tok driven.Tokenizer) {
	r.Register("chunker", func(cfg map[string]any) (driven.PageProcessor, error) {
		return buildChunker(cfg, tok)
	})
	r.Register("section", func(map[string]any) (driven.PageProcessor, error) {
		return section.New(), nil
	})
}

// NewDefaultPipeline builds the default pipeline from chunking settings.
func NewDefaultPipeline(tok driven.Tokenizer, cfg domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r, tok)
	return r.BuildPipeline(DefaultPipeline, map[string]map[string]any{
		"chunker": {
			"max_tokens":     cfg.MaxTokens,
			"overlap_tokens": cfg.OverlapTokens,
		},
	})
}

// buildChunker reads max_tokens (default 600) and overlap_tokens
// (default 100). Set keys must be whole numbers; the overlap must stay
// below the ceiling.
func buildChunker(cfg map[string]any, tok driven.Tokenizer) (driven.PageProcessor, error) {
	maxTokens, err := intOption(cfg, "max_tokens", chunker.DefaultMaxTokens)
	if err != nil {
		return nil, err
	}
	overlap, err := intOption(cfg, "overlap_tokens", chunker.DefaultOverlapTokens)
	if err != nil {
		return nil, err
	}

	switch {
	case maxTokens <= 0:
		return nil, fmt.Errorf("max_tokens must be positive, got %d", maxTokens)
	case overlap < 0:
		return nil, fmt.Errorf("overlap_tokens must not be negative, got %d", overlap)
	case overlap >= maxTokens:
		return nil, fmt.Errorf("overlap_tokens (%d) must be below max_tokens (%d)", overlap, maxTokens)
	}

	return chunker.New(
		chunker.WithTokenizer(tok),
		chunker.WithMaxTokens(maxTokens),
		chunker.WithOverlap(overlap),
	), nil
}

// intOption accepts the integer shapes TOML and JSON decode into.
func intOption(cfg map[string]any, key string, def int) (int, error) {
	val, ok := cfg[key]
	if !ok {
		return def, nil
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("%s must be a whole number, got %v (%T)", key, val, val)
}
