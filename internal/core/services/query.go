package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Question and citation bounds.
const (
	MinQuestionLength = 10
	MaxQuestionLength = 500
	MaxCitations      = 10
)

const unanswerableMessage = "Unable to answer this question based on available documents."

// Suggestions returned alongside unanswerable questions.
var (
	NoEvidenceSuggestions = []string{
		"Try rephrasing your question",
		"Ensure the documents contain information about this topic",
		"Ask about topics covered in the uploaded documents",
	}
	LowConfidenceSuggestions = []string{
		"The documents may not contain information about this specific topic",
		"Try asking a more specific question",
		"Check if the relevant document is uploaded",
	}
)

// QueryConfig configures the query pipeline.
type QueryConfig struct {
	TopK     int
	MinScore float64

	// RetrievalAttempts bounds tries of the retrieval read (minimum 1).
	RetrievalAttempts int

	EmbeddingTimeout time.Duration
	LLMTimeout       time.Duration
}

// QueryService answers questions: gate, embed, retrieve, assemble, record.
type QueryService struct {
	embedder  driven.EmbeddingService
	retriever *Retriever
	assembler *AnswerAssembler
	governor  *UsageGovernor
	documents driving.DocumentService
	clock     driven.Clock
	cfg       QueryConfig
}

// NewQueryService creates a query service. A nil clock uses the wall clock.
func NewQueryService(
	embedder driven.EmbeddingService,
	retriever *Retriever,
	assembler *AnswerAssembler,
	governor *UsageGovernor,
	documents driving.DocumentService,
	clock driven.Clock,
	cfg QueryConfig,
) *QueryService {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.RetrievalAttempts < 1 {
		cfg.RetrievalAttempts = 1
	}
	return &QueryService{
		embedder:  embedder,
		retriever: retriever,
		assembler: assembler,
		governor:  governor,
		documents: documents,
		clock:     clock,
		cfg:       cfg,
	}
}

// Ask runs the full retrieval and grounding pipeline.
func (s *QueryService) Ask(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	question, err := validateQuestion(req)
	if err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.NewUpstreamError("embedding service is not configured", domain.ErrEmbeddingUnavailable)
	}

	if admission := s.governor.Admit(); !admission.Allowed {
		logger.Warn("Query denied: %s", admission.Reason)
		return nil, domain.NewLimitError(admission.Reason)
	}

	totalStart := s.clock.Now()

	docCount, err := s.documents.Count(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if docCount == 0 {
		return nil, domain.NewValidationError(domain.ReasonNoDocuments,
			"No documents uploaded. Please upload a PDF document first.")
	}

	var timing domain.QueryTiming

	stageStart := s.clock.Now()
	vector, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, domain.NewUpstreamError("embedding the question failed", err)
	}
	timing.Embedding = s.clock.Now().Sub(stageStart)

	limit := req.MaxCitations
	if limit == 0 {
		limit = s.cfg.TopK
	}

	stageStart = s.clock.Now()
	results, err := s.retrieve(ctx, domain.RetrieveRequest{
		Vector:      vector,
		TenantID:    req.TenantID,
		DocumentIDs: req.DocumentIDs,
		Limit:       limit,
		MinScore:    s.cfg.MinScore,
	})
	if err != nil {
		return nil, err
	}
	timing.Search = s.clock.Now().Sub(stageStart)

	citations := make([]domain.Citation, 0, len(results))
	retrievalTokens := 0
	for _, r := range results {
		citations = append(citations, domain.NewCitation(r))
		retrievalTokens += r.TokenCount
	}

	if len(results) == 0 {
		return nil, &domain.QueryError{
			Reason:      domain.ReasonNoRelevantChunks,
			Message:     unanswerableMessage,
			Suggestions: NoEvidenceSuggestions,
			Citations:   []domain.Citation{},
			Err:         domain.ErrNoEvidence,
		}
	}

	stageStart = s.clock.Now()
	answer, err := s.assemble(ctx, question, results)
	if err != nil {
		return nil, domain.NewUpstreamError("generating the answer failed", err)
	}
	timing.LLM = s.clock.Now().Sub(stageStart)
	timing.Total = s.clock.Now().Sub(totalStart)

	day := s.governor.Record(answer.InputTokens, answer.OutputTokens, answer.CostUSD)
	logger.Debug("Usage today: %d queries, $%.4f", day.Queries, day.CostUSD)

	if answer.InsufficientEvidence() {
		return nil, &domain.QueryError{
			Reason:      domain.ReasonLowConfidence,
			Message:     unanswerableMessage,
			Suggestions: LowConfidenceSuggestions,
			Citations:   citations,
			Err:         domain.ErrLowConfidence,
		}
	}

	return &domain.QueryResponse{
		Answer:     answer.Text,
		Citations:  citations,
		Confidence: answer.Confidence,
		Usage: domain.QueryUsage{
			RetrievalTokens: retrievalTokens,
			InputTokens:     answer.InputTokens,
			OutputTokens:    answer.OutputTokens,
			CostUSD:         answer.CostUSD,
			Timing:          timing,
		},
		Warning: answer.Confidence.Warning(),
	}, nil
}

func validateQuestion(req domain.QueryRequest) (string, error) {
	if req.TenantID == "" {
		return "", domain.NewValidationError(domain.ReasonValidation, "tenant is required")
	}
	question := strings.TrimSpace(req.Question)
	if n := utf8.RuneCountInString(question); n < MinQuestionLength || n > MaxQuestionLength {
		return "", domain.NewValidationError(domain.ReasonValidation,
			fmt.Sprintf("question must be between %d and %d characters, got %d",
				MinQuestionLength, MaxQuestionLength, n))
	}
	if req.MaxCitations < 0 || req.MaxCitations > MaxCitations {
		return "", domain.NewValidationError(domain.ReasonValidation,
			fmt.Sprintf("max citations must be between 1 and %d, got %d", MaxCitations, req.MaxCitations))
	}
	return question, nil
}

func (s *QueryService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	if s.cfg.EmbeddingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbeddingTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, question)
}

// retrieve retries the read only while the store reports itself unavailable.
func (s *QueryService) retrieve(ctx context.Context, req domain.RetrieveRequest) ([]domain.RetrievalResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetrievalAttempts; attempt++ {
		results, err := s.retriever.Retrieve(ctx, req)
		if err == nil {
			return results, nil
		}
		var qe *domain.QueryError
		if errors.As(err, &qe) && qe.Reason == domain.ReasonValidation {
			return nil, err
		}
		lastErr = err
		if !errors.Is(err, domain.ErrUpstreamUnavailable) || ctx.Err() != nil {
			break
		}
		logger.Warn("Retrieval attempt %d/%d failed: %v", attempt, s.cfg.RetrievalAttempts, err)
	}
	return nil, domain.NewUpstreamError("searching documents failed", lastErr)
}

func (s *QueryService) assemble(
	ctx context.Context, question string, results []domain.RetrievalResult,
) (*domain.Answer, error) {
	if s.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LLMTimeout)
		defer cancel()
	}
	return s.assembler.Assemble(ctx, question, results)
}
