package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyTenant = "tenant.id"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedTimeout  = "embedding.timeout_seconds"

	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMTemperature = "llm.temperature"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyLLMTimeout     = "llm.timeout_seconds"
	keyLLMRPS         = "llm.requests_per_second"

	keyOpenAIAPIKey    = "openai.api_key"
	keyAnthropicAPIKey = "anthropic.api_key"

	keyVectorBackend    = "vector_store.backend"
	keyVectorDataDir    = "vector_store.data_dir"
	keyVectorQdrantURL  = "vector_store.qdrant_url"
	keyVectorQdrantKey  = "vector_store.qdrant_api_key"
	keyVectorCollection = "vector_store.collection"
	keyVectorTimeout    = "vector_store.timeout_seconds"

	keyChunkMaxTokens = "chunking.max_tokens"
	keyChunkOverlap   = "chunking.overlap_tokens"

	keyRetrievalTopK     = "retrieval.top_k"
	keyRetrievalMinScore = "retrieval.min_score"
	keyRetrievalAttempts = "retrieval.attempts"
	keyShowRelevance     = "retrieval.show_relevance"

	keyMaxDocuments  = "limits.max_documents"
	keyMaxPages      = "limits.max_pages_per_document"
	keyMaxFileSizeMB = "limits.max_file_size_mb"
	keyMaxDailyQuery = "limits.max_daily_queries"
	keyMaxDailyCost  = "limits.max_daily_cost_usd"

	keyPriceInput1K  = "pricing.input_per_1k"
	keyPriceOutput1K = "pricing.output_per_1k"
)

const defaultOllamaHost = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Every missing or invalid key falls back to its default.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		TenantID: s.getString(keyTenant, d.TenantID),
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			Timeout:  s.getSeconds(keyEmbedTimeout, d.Embedding.Timeout),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			Temperature:       s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:         s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Timeout:           s.getSeconds(keyLLMTimeout, d.LLM.Timeout),
			RequestsPerSecond: s.getFloat(keyLLMRPS, d.LLM.RequestsPerSecond),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:      s.getBackend(d.VectorStore.Backend),
			DataDir:      s.configStore.GetString(keyVectorDataDir),
			QdrantURL:    s.configStore.GetString(keyVectorQdrantURL),
			QdrantAPIKey: s.configStore.GetString(keyVectorQdrantKey),
			Collection:   s.getString(keyVectorCollection, d.VectorStore.Collection),
			Timeout:      s.getSeconds(keyVectorTimeout, d.VectorStore.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			MaxTokens:     s.getInt(keyChunkMaxTokens, d.Chunking.MaxTokens),
			OverlapTokens: s.getInt(keyChunkOverlap, d.Chunking.OverlapTokens),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:     s.getInt(keyRetrievalTopK, d.Retrieval.TopK),
			MinScore: s.getFloat(keyRetrievalMinScore, d.Retrieval.MinScore),
			Attempts: s.getInt(keyRetrievalAttempts, d.Retrieval.Attempts),

			ShowRelevance: s.configStore.GetBool(keyShowRelevance),
		},
		Limits: domain.LimitSettings{
			MaxDocuments:        s.getInt(keyMaxDocuments, d.Limits.MaxDocuments),
			MaxPagesPerDocument: s.getInt(keyMaxPages, d.Limits.MaxPagesPerDocument),
			MaxFileSizeMB:       s.getInt(keyMaxFileSizeMB, d.Limits.MaxFileSizeMB),
			MaxDailyQueries:     s.getInt(keyMaxDailyQuery, d.Limits.MaxDailyQueries),
			MaxDailyCostUSD:     s.getFloat(keyMaxDailyCost, d.Limits.MaxDailyCostUSD),
		},
		Pricing: domain.PricingSettings{
			InputPer1K:  s.getFloat(keyPriceInput1K, d.Pricing.InputPer1K),
			OutputPer1K: s.getFloat(keyPriceOutput1K, d.Pricing.OutputPer1K),
		},
	}

	settings.Embedding.APIKey = s.apiKey(keyEmbedAPIKey, settings.Embedding.Provider)
	settings.LLM.APIKey = s.apiKey(keyLLMAPIKey, settings.LLM.Provider)

	if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaHost
	}
	if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaHost
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyTenant, settings.TenantID},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyLLMRPS, settings.LLM.RequestsPerSecond},
		{keyVectorBackend, string(settings.VectorStore.Backend)},
		{keyVectorDataDir, settings.VectorStore.DataDir},
		{keyVectorQdrantURL, settings.VectorStore.QdrantURL},
		{keyVectorCollection, settings.VectorStore.Collection},
		{keyVectorTimeout, int(settings.VectorStore.Timeout / time.Second)},
		{keyChunkMaxTokens, settings.Chunking.MaxTokens},
		{keyChunkOverlap, settings.Chunking.OverlapTokens},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyRetrievalMinScore, settings.Retrieval.MinScore},
		{keyRetrievalAttempts, settings.Retrieval.Attempts},
		{keyShowRelevance, settings.Retrieval.ShowRelevance},
		{keyMaxDocuments, settings.Limits.MaxDocuments},
		{keyMaxPages, settings.Limits.MaxPagesPerDocument},
		{keyMaxFileSizeMB, settings.Limits.MaxFileSizeMB},
		{keyMaxDailyQuery, settings.Limits.MaxDailyQueries},
		{keyMaxDailyCost, settings.Limits.MaxDailyCostUSD},
		{keyPriceInput1K, settings.Pricing.InputPer1K},
		{keyPriceOutput1K, settings.Pricing.OutputPer1K},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present
	secrets := map[string]string{
		keyEmbedAPIKey:     settings.Embedding.APIKey,
		keyLLMAPIKey:       settings.LLM.APIKey,
		keyVectorQdrantKey: settings.VectorStore.QdrantAPIKey,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.apiKey(keyLLMAPIKey, provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaHost
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
// The embedding model's dimension must match the stored vectors, so
// changing it requires re-ingesting documents.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || provider == domain.AIProviderAnthropic {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.apiKey(keyEmbedAPIKey, provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaHost
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings are usable for ingestion and queries.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}
	if settings.VectorStore.Backend == domain.VectorBackendQdrant && settings.VectorStore.QdrantURL == "" {
		return fmt.Errorf("%w: qdrant backend requires vector_store.qdrant_url",
			domain.ErrVectorStoreUnavailable)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when the key is absent, so an explicit
// zero (e.g. no overlap) is kept.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.configStore.GetInt(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(keyVectorBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

// apiKey prefers the explicit key, then the provider-wide one
// (openai.api_key, anthropic.api_key, usually set from the environment).
func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return s.configStore.GetString(keyOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.configStore.GetString(keyAnthropicAPIKey)
	default:
		return ""
	}
}
