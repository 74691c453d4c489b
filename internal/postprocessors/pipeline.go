// Package postprocessors turns extracted pages into indexable chunks by
// running them through a chain of PageProcessors.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PageProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order: the first creates chunks from page
// text, later ones annotate or reshape them. After every stage the chunks
// are checked against the page's owner so no processor can move a chunk
// to another document or tenant.
type Pipeline struct {
	processors []driven.PageProcessor
}

// NewPipeline creates a pipeline running processors in the order given.
func NewPipeline(processors ...driven.PageProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process runs the page through every processor. Chunks whose text is
// blank are dropped; a missing document or tenant id is filled from meta.
func (p *Pipeline) Process(ctx context.Context, page domain.Page, meta domain.PageMeta) ([]domain.Chunk, error) {
	if meta.DocumentID == "" || meta.TenantID == "" {
		return nil, fmt.Errorf("%w: page %d has no document or tenant id", domain.ErrInvalidInput, page.Number)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := proc.Process(ctx, page, meta, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
		if chunks, err = claim(out, meta); err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
	}

	return chunks, nil
}

// claim drops blank chunks and pins the rest to meta's document and tenant.
func claim(chunks []domain.Chunk, meta domain.PageMeta) ([]domain.Chunk, error) {
	kept := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.DocumentID == "" {
			c.DocumentID = meta.DocumentID
		}
		if c.TenantID == "" {
			c.TenantID = meta.TenantID
		}
		if c.DocumentID != meta.DocumentID || c.TenantID != meta.TenantID {
			return nil, fmt.Errorf("chunk %s belongs to %s/%s, page belongs to %s/%s",
				c.ID, c.TenantID, c.DocumentID, meta.TenantID, meta.DocumentID)
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return kept, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PageProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names lists the processors in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
