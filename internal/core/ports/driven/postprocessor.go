package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// PageProcessor is one stage of chunk production. The first stage in a
// pipeline receives nil and creates chunks from page.Text; later stages
// receive the previous stage's chunks and return them annotated.
type PageProcessor interface {
	Name() string
	Process(ctx context.Context, page domain.Page, meta domain.PageMeta, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PageProcessorPipeline turns one extracted page into the chunks that are
// embedded and stored. Every returned chunk belongs to meta's document
// and tenant.
type PageProcessorPipeline interface {
	Process(ctx context.Context, page domain.Page, meta domain.PageMeta) ([]domain.Chunk, error)
}
