package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCitation(t *testing.T) {
	r := RetrievalResult{
		Chunk: Chunk{
			DocumentID:    "doc-1",
			DocumentTitle: "Master Agreement",
			PageNumber:    7,
			SectionTitle:  "Indemnity",
			Text:          "The supplier shall indemnify.",
		},
		Score: 0.81,
	}

	c := NewCitation(r)
	assert.Equal(t, "doc-1", c.DocumentID)
	assert.Equal(t, "Master Agreement", c.DocumentTitle)
	assert.Equal(t, 7, c.PageNumber)
	assert.Equal(t, "Indemnity", c.SectionTitle)
	assert.Equal(t, "The supplier shall indemnify.", c.Snippet)
	assert.InDelta(t, 0.81, c.Score, 1e-9)
}

func TestNewCitation_TruncatesSnippetByRunes(t *testing.T) {
	text := strings.Repeat("é", SnippetLength+20)
	c := NewCitation(RetrievalResult{Chunk: Chunk{Text: text}})

	assert.Equal(t, SnippetLength, len([]rune(c.Snippet)))
	assert.Equal(t, "Unknown", c.DocumentTitle)
}
