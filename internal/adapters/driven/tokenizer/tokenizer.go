// Package tokenizer provides token counters for chunk sizing and cost accounting.
package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Encoding is the BPE encoding used by the OpenAI chat models.
const Encoding = "cl100k_base"

// Ensure implementations satisfy the interface.
var (
	_ driven.Tokenizer = (*Tiktoken)(nil)
	_ driven.Tokenizer = Estimator{}
)

// Tiktoken counts tokens with a BPE encoding.
// Encode is not documented as goroutine-safe, so calls are serialised.
type Tiktoken struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the cl100k_base encoding.
// The ranks file may be fetched on first use, so this can fail offline.
func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %s: %w", Encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// DefaultCharsPerToken is the usual ratio for English prose.
const DefaultCharsPerToken = 4

// Estimator approximates tokens as characters divided by a fixed ratio,
// rounding up so that any non-empty text counts as at least one token.
type Estimator struct {
	CharsPerToken int // defaults to 4 if zero
}

func (e Estimator) ratio() int {
	if e.CharsPerToken <= 0 {
		return DefaultCharsPerToken
	}
	return e.CharsPerToken
}

// Count returns the estimated token count of text.
func (e Estimator) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	r := e.ratio()
	return (n + r - 1) / r
}

// New returns the BPE tokenizer, or the estimator when the encoding
// cannot be loaded.
func New() driven.Tokenizer {
	t, err := NewTiktoken()
	if err != nil {
		logger.Warn("falling back to estimated token counts: %v", err)
		return Estimator{}
	}
	return t
}
