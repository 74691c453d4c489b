package driven

// Tokenizer counts tokens for a text span.
// Count must be deterministic, never negative, and return 0 for "".
type Tokenizer interface {
	Count(text string) int
}
