package domain

import "strings"

// Confidence is the self-assessed reliability of a generated answer.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence converts a case-insensitive level name.
// Returns false for anything other than high, medium or low.
func ParseConfidence(s string) (Confidence, bool) {
	c := Confidence(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// IsValid returns true if the confidence level is recognised.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Confidence) String() string {
	return string(c)
}

// Warning returns the caveat shown next to an answer of this confidence.
func (c Confidence) Warning() string {
	switch c {
	case ConfidenceLow:
		return "The answer has low confidence. Please verify with the source documents."
	case ConfidenceMedium:
		return "Some parts of this answer may require additional verification."
	default:
		return ""
	}
}

// Answer is the assembler's output for one question.
type Answer struct {
	Text         string
	Confidence   Confidence
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// insufficiencyPhrases mark an answer in which the model gave up.
// Keep in step with the refusal wording in the system instruction.
var insufficiencyPhrases = []string{
	"cannot find sufficient",
	"insufficient information",
}

// InsufficientEvidence reports whether the answer is a low-confidence
// refusal that callers must surface as a failure rather than an answer.
func (a Answer) InsufficientEvidence() bool {
	if a.Confidence != ConfidenceLow {
		return false
	}
	lower := strings.ToLower(a.Text)
	for _, phrase := range insufficiencyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
