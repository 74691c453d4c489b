package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TextExtractor turns an uploaded file into per-page text.
type TextExtractor interface {
	// Validate checks the file type and size before any parsing.
	// Failures wrap domain.ErrValidation.
	Validate(filename string, size int64) error

	// ExtractPages returns the document's pages in order. Unparseable
	// input and documents without pages are validation failures.
	ExtractPages(ctx context.Context, content []byte) ([]domain.Page, error)
}
