// Package chunker provides a token-bounded, sentence-aware chunking processor.
package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultMaxTokens is the default token ceiling per chunk.
const DefaultMaxTokens = 600

// DefaultOverlapTokens is the default token budget of the overlap prefix.
const DefaultOverlapTokens = 100

// sentenceBoundary matches the whitespace run after terminal punctuation.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Processor splits page text into overlapping chunks of at most maxTokens.
// It implements the PageProcessor interface.
type Processor struct {
	maxTokens int
	overlap   int
	tokenizer driven.Tokenizer
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the token ceiling per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithOverlap sets the overlap budget in tokens.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithTokenizer sets the tokenizer used for every sizing decision.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tokenizer = t
		}
	}
}

// New creates a new chunker processor with the given options.
// Without WithTokenizer every whitespace-separated word counts as one token.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlapTokens,
		tokenizer: wordCounter{},
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap stays below the ceiling
	if p.overlap >= p.maxTokens {
		p.overlap = p.maxTokens / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxTokens returns the configured token ceiling.
func (p *Processor) MaxTokens() int {
	return p.maxTokens
}

// Overlap returns the configured overlap budget.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the page text into chunks.
// Input chunks are ignored; this processor creates new chunks from page text.
func (p *Processor) Process(
	ctx context.Context, page domain.Page, meta domain.PageMeta, _ []domain.Chunk,
) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := p.Split(page.Text)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:            domain.ChunkID(meta.DocumentID, page.Number, i),
			DocumentID:    meta.DocumentID,
			DocumentTitle: meta.DocumentTitle,
			TenantID:      meta.TenantID,
			PageNumber:    page.Number,
			Text:          text,
			TokenCount:    p.tokenizer.Count(text),
		})
	}

	return chunks, nil
}

// Split returns the chunk texts for one page, trimmed and non-empty.
func (p *Processor) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	emit := func(parts []string) {
		if s := strings.TrimSpace(strings.Join(parts, " ")); s != "" {
			out = append(out, s)
		}
	}

	var current []string

	for _, sentence := range SplitSentences(text) {
		sentenceTokens := p.tokenizer.Count(sentence)

		switch {
		case sentenceTokens > p.maxTokens:
			if len(current) > 0 {
				emit(current)
			}
			// The last pack stays open so following sentences can join it.
			packs := p.packWords(sentence)
			for _, pack := range packs[:len(packs)-1] {
				emit(pack)
			}
			current = []string{strings.Join(packs[len(packs)-1], " ")}

		case len(current) > 0 && p.joinedCount(current, sentence) > p.maxTokens:
			emit(current)
			current = append(p.overlapPrefix(current, sentence), sentence)

		default:
			current = append(current, sentence)
		}
	}

	if len(current) > 0 {
		emit(current)
	}

	return out
}

// joinedCount is the token count of the buffer with next appended.
func (p *Processor) joinedCount(buffer []string, next string) int {
	return p.tokenizer.Count(strings.Join(buffer, " ") + " " + next)
}

// overlapPrefix walks back over the flushed sentences, keeping whole
// sentences while the prefix fits the overlap budget. Sentences are then
// dropped from the front until prefix plus next fits the ceiling.
func (p *Processor) overlapPrefix(flushed []string, next string) []string {
	if p.overlap == 0 {
		return nil
	}

	start := len(flushed)
	for i := len(flushed) - 1; i >= 0; i-- {
		if p.tokenizer.Count(strings.Join(flushed[i:], " ")) > p.overlap {
			break
		}
		start = i
	}

	prefix := flushed[start:]
	for len(prefix) > 0 && p.joinedCount(prefix, next) > p.maxTokens {
		prefix = prefix[1:]
	}

	return append([]string(nil), prefix...)
}

// packWords greedily packs the words of an oversized sentence into groups
// of at most maxTokens. A single word above the ceiling stands alone.
func (p *Processor) packWords(sentence string) [][]string {
	var packs [][]string
	var pack []string

	for _, word := range strings.Fields(sentence) {
		if len(pack) > 0 && p.joinedCount(pack, word) > p.maxTokens {
			packs = append(packs, pack)
			pack = nil
		}
		pack = append(pack, word)
	}
	if len(pack) > 0 {
		packs = append(packs, pack)
	}

	return packs
}

// SplitSentences cuts text after '.', '!' or '?' followed by whitespace.
// Empty pieces are dropped. Abbreviations over-split; that is accepted.
func SplitSentences(text string) []string {
	var sentences []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		add(text[start : loc[0]+1])
		start = loc[1]
	}
	add(text[start:])

	return sentences
}

// wordCounter counts whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}
