package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa/internal/adapters/driven/config"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EnvConfigStore implements the interface.
var _ driven.ConfigStore = (*EnvConfigStore)(nil)

// DefaultEnvBindings maps environment variables to config keys.
// A set variable wins over the value in the config file.
//
//nolint:gosec // G101: These are variable names, not credentials.
var DefaultEnvBindings = map[string]string{
	"OPENAI_API_KEY":    "openai.api_key",
	"ANTHROPIC_API_KEY": "anthropic.api_key",
	"QDRANT_URL":        "vector_store.qdrant_url",
	"QDRANT_API_KEY":    "vector_store.qdrant_api_key",
	"DOCQA_TENANT":      "tenant.id",
	"DOCQA_LLM_MODEL":   "llm.model",

	"DOCQA_VECTOR_BACKEND":    "vector_store.backend",
	"DOCQA_MAX_DAILY_QUERIES": "limits.max_daily_queries",
	"DOCQA_MAX_DAILY_COST":    "limits.max_daily_cost_usd",
	"DOCQA_SHOW_RELEVANCE":    "retrieval.show_relevance",
}

// LoadDotEnv loads .env files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// EnvConfigStore overlays environment variables on another ConfigStore.
// Reads of a bound key return the variable when it is set; writes go
// to the underlying store.
type EnvConfigStore struct {
	driven.ConfigStore
	byKey  map[string]string
	lookup func(string) (string, bool)
}

// NewEnvConfigStore wraps store with the given bindings (env var -> key).
// A nil lookup reads the process environment.
func NewEnvConfigStore(
	store driven.ConfigStore, bindings map[string]string, lookup func(string) (string, bool),
) *EnvConfigStore {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	byKey := make(map[string]string, len(bindings))
	for env, key := range bindings {
		byKey[key] = env
	}
	return &EnvConfigStore{ConfigStore: store, byKey: byKey, lookup: lookup}
}

func (s *EnvConfigStore) env(key string) (string, bool) {
	name, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	val, ok := s.lookup(name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Get returns the bound variable if set, otherwise the stored value.
func (s *EnvConfigStore) Get(key string) (any, bool) {
	if val, ok := s.env(key); ok {
		return val, true
	}
	return s.ConfigStore.Get(key)
}

// GetString returns the bound variable if set, otherwise the stored value.
func (s *EnvConfigStore) GetString(key string) string {
	if val, ok := s.env(key); ok {
		return val
	}
	return s.ConfigStore.GetString(key)
}

// GetInt parses the bound variable if set, otherwise reads the store.
func (s *EnvConfigStore) GetInt(key string) int {
	if val, ok := s.env(key); ok {
		return config.Int(val)
	}
	return s.ConfigStore.GetInt(key)
}

// GetFloat parses the bound variable if set, otherwise reads the store.
func (s *EnvConfigStore) GetFloat(key string) float64 {
	if val, ok := s.env(key); ok {
		return config.Float(val)
	}
	return s.ConfigStore.GetFloat(key)
}

// GetBool parses the bound variable if set, otherwise reads the store.
func (s *EnvConfigStore) GetBool(key string) bool {
	if val, ok := s.env(key); ok {
		return config.Bool(val)
	}
	return s.ConfigStore.GetBool(key)
}
