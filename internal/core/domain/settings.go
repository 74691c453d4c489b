package domain

import (
	"errors"
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns the providers that can produce embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns the providers that can answer questions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// VectorBackend selects the vector store implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendMemory VectorBackend = "memory"
	VectorBackendSQLite VectorBackend = "sqlite"
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds a single embedding call.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature controls randomness of answers.
	Temperature float64

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Timeout bounds a single completion call.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound completions (0 = unlimited).
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	Backend VectorBackend

	// DataDir is where the sqlite backend keeps its database.
	DataDir string

	// QdrantURL and QdrantAPIKey address a Qdrant cluster.
	QdrantURL    string
	QdrantAPIKey string

	// Collection is the Qdrant collection name.
	Collection string

	// Timeout bounds a single store call.
	Timeout time.Duration
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	MaxTokens     int
	OverlapTokens int
}

// RetrievalSettings configures retrieval.
type RetrievalSettings struct {
	// TopK is the default number of chunks fed to the assembler.
	TopK int

	// MinScore drops candidates below this cosine similarity.
	MinScore float64

	// Attempts is how many times the query pipeline tries the
	// (idempotent) retrieval read before giving up.
	Attempts int

	// ShowRelevance adds each source's relevance percentage to the
	// context given to the LLM.
	ShowRelevance bool
}

// LimitSettings holds document and usage ceilings.
type LimitSettings struct {
	MaxDocuments        int
	MaxPagesPerDocument int
	MaxFileSizeMB       int
	MaxDailyQueries     int
	MaxDailyCostUSD     float64
}

// PricingSettings holds LLM token rates in USD per 1K tokens.
type PricingSettings struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost computes the spend for a token pair.
func (p PricingSettings) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*p.InputPer1K + float64(outputTokens)/1000*p.OutputPer1K
}

// Settings holds all application settings.
type Settings struct {
	// TenantID is the default tenant for CLI invocations.
	TenantID string

	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
	Chunking    ChunkingSettings
	Retrieval   RetrievalSettings
	Limits      LimitSettings
	Pricing     PricingSettings
}

// DefaultSettings returns the reference deployment's configuration.
// AI providers default to local Ollama with the 384-dimension MiniLM model.
func DefaultSettings() Settings {
	return Settings{
		TenantID: "default",
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "all-minilm",
			Timeout:  30 * time.Second,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			MaxTokens:   1000,
			Timeout:     120 * time.Second,
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendSQLite,
			Collection: "legal_documents",
			Timeout:    15 * time.Second,
		},
		Chunking: ChunkingSettings{
			MaxTokens:     600,
			OverlapTokens: 100,
		},
		Retrieval: RetrievalSettings{
			TopK:     6,
			MinScore: 0.10,
			Attempts: 2,
		},
		Limits: LimitSettings{
			MaxDocuments:        10,
			MaxPagesPerDocument: 80,
			MaxFileSizeMB:       10,
			MaxDailyQueries:     100,
			MaxDailyCostUSD:     1.00,
		},
		Pricing: PricingSettings{
			InputPer1K:  0.00015,
			OutputPer1K: 0.0006,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (s *Settings) Validate() error {
	var errs []error
	if s.Chunking.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("chunking.max_tokens must be positive, got %d", s.Chunking.MaxTokens))
	}
	if s.Chunking.OverlapTokens < 0 {
		errs = append(errs, fmt.Errorf("chunking.overlap_tokens must not be negative, got %d", s.Chunking.OverlapTokens))
	}
	if s.Chunking.MaxTokens > 0 && s.Chunking.OverlapTokens >= s.Chunking.MaxTokens {
		errs = append(errs, fmt.Errorf("chunking.overlap_tokens (%d) must be below max_tokens (%d)",
			s.Chunking.OverlapTokens, s.Chunking.MaxTokens))
	}
	if s.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be positive, got %d", s.Retrieval.TopK))
	}
	if s.Retrieval.MinScore < 0 || s.Retrieval.MinScore > 1 {
		errs = append(errs, fmt.Errorf("retrieval.min_score must be within [0,1], got %g", s.Retrieval.MinScore))
	}
	if s.Limits.MaxDocuments <= 0 || s.Limits.MaxPagesPerDocument <= 0 || s.Limits.MaxFileSizeMB <= 0 {
		errs = append(errs, errors.New("document limits must be positive"))
	}
	if s.Limits.MaxDailyQueries <= 0 || s.Limits.MaxDailyCostUSD <= 0 {
		errs = append(errs, errors.New("daily limits must be positive"))
	}
	if s.Pricing.InputPer1K < 0 || s.Pricing.OutputPer1K < 0 {
		errs = append(errs, errors.New("pricing rates must not be negative"))
	}
	if !s.VectorStore.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: vector backend %q", ErrUnsupportedType, s.VectorStore.Backend))
	}
	if s.TenantID == "" {
		errs = append(errs, errors.New("tenant must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// DefaultEmbeddingModels returns the default embedding model per provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns the default LLM model per provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
