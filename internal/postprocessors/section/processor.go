// Package section provides a page-level section title detector.
package section

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	// headingPattern matches the first markdown heading line anywhere on the page.
	headingPattern = regexp.MustCompile(`(?m)^#+\s+(.+?)$`)

	// boldPattern matches a bold run at the very start of the page.
	boldPattern = regexp.MustCompile(`^\*\*(.+?)\*\*`)
)

// Processor stamps every chunk of a page with the page's section title.
// It implements the PageProcessor interface.
type Processor struct{}

// New creates a section processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "section"
}

// Process annotates chunks with the title detected on the page.
// Chunks are returned unchanged when no title is found.
func (p *Processor) Process(
	_ context.Context, page domain.Page, _ domain.PageMeta, chunks []domain.Chunk,
) ([]domain.Chunk, error) {
	title := Detect(page.Text)
	if title == "" || len(chunks) == 0 {
		return chunks, nil
	}

	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.SectionTitle = title
		out[i] = c
	}
	return out, nil
}

// Detect returns the section title of a page, or "" if there is none.
// A markdown heading wins over a leading bold run.
func Detect(text string) string {
	if m := headingPattern.FindStringSubmatch(text); m != nil {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title
		}
	}
	if m := boldPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
