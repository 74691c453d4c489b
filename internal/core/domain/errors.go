package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// Query pipeline taxonomy.

	// ErrValidation indicates bad input rejected before any processing.
	ErrValidation = errors.New("validation failed")

	// ErrDocumentTooLarge indicates a document above the page or size ceiling.
	ErrDocumentTooLarge = errors.New("document exceeds size limit")

	// ErrLimitExceeded indicates a document, query-count or cost ceiling was hit.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrNoEvidence indicates no chunk scored above the relevance threshold.
	ErrNoEvidence = errors.New("no relevant evidence")

	// ErrLowConfidence indicates the answer itself reports insufficient evidence.
	ErrLowConfidence = errors.New("low confidence answer")

	// ErrUpstreamUnavailable indicates the embedding service, vector store or
	// LLM could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrRateLimited indicates the upstream throttled the request.
	// Retrying later may succeed.
	ErrRateLimited = errors.New("rate limited")

	// Adapter availability.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)

// ReasonCode classifies a query failure for callers.
type ReasonCode string

// Reason codes.
const (
	ReasonValidation          ReasonCode = "validation"
	ReasonDocumentTooLarge    ReasonCode = "document_too_large"
	ReasonNoDocuments         ReasonCode = "no_documents"
	ReasonLimitExceeded       ReasonCode = "limit_exceeded"
	ReasonNoRelevantChunks    ReasonCode = "no_relevant_chunks"
	ReasonLowConfidence       ReasonCode = "low_confidence"
	ReasonUpstreamUnavailable ReasonCode = "upstream_unavailable"
)

// QueryError carries structured detail about a failed request so callers
// can present actionable guidance. It unwraps to one of the taxonomy
// sentinels (and to the underlying cause, if any).
type QueryError struct {
	Reason      ReasonCode
	Message     string
	Suggestions []string

	// Citations are the chunks that were considered, if any.
	Citations []Citation

	// Err is the taxonomy sentinel or a wrapped cause.
	Err error
}

// Error implements error.
func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Reason))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped sentinel or cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a validation failure.
func NewValidationError(reason ReasonCode, message string) *QueryError {
	return &QueryError{Reason: reason, Message: message, Err: ErrValidation}
}

// NewDocumentTooLargeError builds a size-limit failure. It matches both
// ErrValidation and ErrDocumentTooLarge.
func NewDocumentTooLargeError(message string) *QueryError {
	return &QueryError{
		Reason:  ReasonDocumentTooLarge,
		Message: message,
		Err:     fmt.Errorf("%w: %w", ErrValidation, ErrDocumentTooLarge),
	}
}

// NewLimitError builds a limit failure.
func NewLimitError(message string) *QueryError {
	return &QueryError{Reason: ReasonLimitExceeded, Message: message, Err: ErrLimitExceeded}
}

// NewUpstreamError wraps an adapter failure. The cause is kept so callers
// can still test for ErrRateLimited or context deadlines.
func NewUpstreamError(message string, cause error) *QueryError {
	if cause == nil {
		cause = ErrUpstreamUnavailable
	} else if !errors.Is(cause, ErrUpstreamUnavailable) {
		cause = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, cause)
	}
	return &QueryError{Reason: ReasonUpstreamUnavailable, Message: message, Err: cause}
}

// IsRetryable reports whether a failed call may succeed if retried later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamUnavailable)
}
