package domain

import "time"

// RetrievalResult is a chunk scored against a query vector.
type RetrievalResult struct {
	Chunk

	// Score is the cosine similarity in [0,1].
	Score float64 `json:"score"`
}

// VectorQuery is a similarity search scoped to a tenant.
type VectorQuery struct {
	Vector []float32

	// TenantID is mandatory; stores must never search across tenants.
	TenantID string

	// DocumentIDs restricts results to any of these documents when non-empty.
	DocumentIDs []string

	// Limit is the number of candidates to return.
	Limit int
}

// ScanFilter selects chunks for a scan. TenantID is mandatory.
type ScanFilter struct {
	TenantID   string
	DocumentID string
}

// RetrieveRequest configures one retrieval.
type RetrieveRequest struct {
	Vector      []float32
	TenantID    string
	DocumentIDs []string
	Limit       int
	MinScore    float64
}

// SnippetLength is the maximum citation snippet length in runes.
const SnippetLength = 500

// Citation is a retrieved chunk surfaced to the caller.
type Citation struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	PageNumber    int     `json:"page_number"`
	SectionTitle  string  `json:"section_title,omitempty"`
	Snippet       string  `json:"text_snippet"`
	Score         float64 `json:"relevance_score"`
}

// NewCitation builds a citation from a retrieval result.
func NewCitation(r RetrievalResult) Citation {
	title := r.DocumentTitle
	if title == "" {
		title = "Unknown"
	}
	return Citation{
		DocumentID:    r.DocumentID,
		DocumentTitle: title,
		PageNumber:    r.PageNumber,
		SectionTitle:  r.SectionTitle,
		Snippet:       truncateRunes(r.Text, SnippetLength),
		Score:         r.Score,
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// QueryRequest is a question asked by a tenant.
type QueryRequest struct {
	TenantID    string
	Question    string
	DocumentIDs []string

	// MaxCitations limits retrieved chunks; 0 uses the configured top_k.
	MaxCitations int
}

// QueryTiming records per-stage latency.
type QueryTiming struct {
	Embedding time.Duration `json:"embedding"`
	Search    time.Duration `json:"search"`
	LLM       time.Duration `json:"llm"`
	Total     time.Duration `json:"total"`
}

// QueryUsage reports the tokens and spend of one query.
type QueryUsage struct {
	RetrievalTokens int         `json:"retrieval_tokens"`
	InputTokens     int         `json:"llm_input_tokens"`
	OutputTokens    int         `json:"llm_output_tokens"`
	CostUSD         float64     `json:"estimated_cost_usd"`
	Timing          QueryTiming `json:"timing"`
}

// QueryResponse is a grounded answer with citations.
type QueryResponse struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence Confidence `json:"confidence"`
	Usage      QueryUsage `json:"usage"`
	Warning    string     `json:"warning,omitempty"`
}
