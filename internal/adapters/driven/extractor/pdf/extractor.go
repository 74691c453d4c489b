// Package pdf extracts per-page text from uploaded PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultMaxFileSizeMB is the upload ceiling when none is configured.
const DefaultMaxFileSizeMB = 10

const bytesPerMB = 1024 * 1024

// Extractor reads PDFs with github.com/ledongthuc/pdf.
type Extractor struct {
	maxFileSizeMB int
}

// NewExtractor creates an extractor that rejects files above maxFileSizeMB.
func NewExtractor(maxFileSizeMB int) *Extractor {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = DefaultMaxFileSizeMB
	}
	return &Extractor{maxFileSizeMB: maxFileSizeMB}
}

// Validate checks the extension and the size before any parsing.
func (e *Extractor) Validate(filename string, size int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return domain.NewValidationError(domain.ReasonValidation, "Only PDF files are accepted")
	}
	if size == 0 {
		return domain.NewValidationError(domain.ReasonValidation, "File is empty")
	}

	sizeMB := float64(size) / bytesPerMB
	if sizeMB > float64(e.maxFileSizeMB) {
		return domain.NewDocumentTooLargeError(
			fmt.Sprintf("File too large (%.1fMB). Maximum: %dMB", sizeMB, e.maxFileSizeMB))
	}
	return nil
}

// ExtractPages returns one Page per PDF page, numbered from 1.
// Pages without a text layer come back with empty text.
func (e *Extractor) ExtractPages(ctx context.Context, content []byte) (pages []domain.Page, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = invalid(fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, invalid(err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, domain.NewValidationError(domain.ReasonValidation, "PDF has no pages")
	}

	pages = make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				logger.Warn("pdf: page %d has no readable text: %v", i, err)
				text = ""
			}
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}

	logger.Debug("pdf: extracted %d pages", total)
	return pages, nil
}

func invalid(err error) error {
	return domain.NewValidationError(domain.ReasonValidation, fmt.Sprintf("Invalid PDF file: %v", err))
}
