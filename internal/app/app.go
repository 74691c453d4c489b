// Package app wires the driven adapters into the core services for the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/docqa/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// Option customises the wiring.
type Option func(*builder)

type builder struct {
	tokenizer driven.Tokenizer
	lookupEnv func(string) (string, bool)
}

// WithTokenizer replaces the BPE tokenizer.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(b *builder) { b.tokenizer = t }
}

// WithEnv replaces the process environment lookup.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(b *builder) { b.lookupEnv = lookup }
}

// Bootstrap is the cli.Bootstrap used by the docqa binary.
func Bootstrap(opts cli.Options) (*cli.Services, error) {
	return New(context.Background(), opts)
}

// New loads configuration and builds every service the commands drive.
// When the AI adapters cannot be built only the settings service is
// returned so the configuration can still be fixed.
func New(ctx context.Context, opts cli.Options, options ...Option) (*cli.Services, error) {
	b := &builder{}
	for _, opt := range options {
		opt(b)
	}

	configDir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	if b.lookupEnv == nil {
		if err := file.LoadDotEnv(".env", filepath.Join(configDir, ".env")); err != nil {
			logger.Warn("ignoring .env: %v", err)
		}
	}

	fileStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	store := file.NewEnvConfigStore(fileStore, file.DefaultEnvBindings, b.lookupEnv)
	settingsService := services.NewSettingsService(store, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config.toml: %w", err)
	}
	if settings.VectorStore.DataDir == "" {
		settings.VectorStore.DataDir = filepath.Join(configDir, "data")
	}

	logger.Section("Startup")
	logger.Debug("Config: %s", fileStore.Path())
	logger.Debug("Embedding: %s (%s)", settings.Embedding.Provider, settings.Embedding.Model)
	logger.Debug("LLM: %s (%s)", settings.LLM.Provider, settings.LLM.Model)
	logger.Debug("Vector store: %s", settings.VectorStore.Backend)

	adapters, err := ai.Init(ctx, settings)
	if err != nil {
		logger.Error("AI services unavailable: %v", err)
		return &cli.Services{Settings: settingsService}, nil
	}

	tok := b.tokenizer
	if tok == nil {
		tok = tokenizer.New()
	}

	pipeline, err := postprocessors.NewDefaultPipeline(tok, settings.Chunking)
	if err != nil {
		adapters.Close()
		return nil, fmt.Errorf("building chunk pipeline: %w", err)
	}

	documents := services.NewDocumentService(
		pdf.NewExtractor(settings.Limits.MaxFileSizeMB),
		pipeline,
		adapters.EmbeddingService,
		adapters.VectorStore,
		services.DocumentLimits{
			MaxDocuments:        settings.Limits.MaxDocuments,
			MaxPagesPerDocument: settings.Limits.MaxPagesPerDocument,
		},
	)

	assembler := services.NewAnswerAssembler(adapters.LLMService, tok, services.AssemblerConfig{
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
		Pricing:     settings.Pricing,

		ShowRelevance: settings.Retrieval.ShowRelevance,
	})
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		logger.Warn("using built-in prompts: %v", err)
	} else {
		assembler.SetPromptStore(prompts)
	}

	governor := services.NewUsageGovernor(settings.Limits, nil)
	query := services.NewQueryService(
		adapters.EmbeddingService,
		services.NewRetriever(adapters.VectorStore),
		assembler,
		governor,
		documents,
		nil,
		services.QueryConfig{
			TopK:              settings.Retrieval.TopK,
			MinScore:          settings.Retrieval.MinScore,
			RetrievalAttempts: settings.Retrieval.Attempts,
			EmbeddingTimeout:  settings.Embedding.Timeout,
			LLMTimeout:        settings.LLM.Timeout,
		},
	)

	return &cli.Services{
		Documents: documents,
		Query:     query,
		Usage:     services.NewUsageService(governor, documents),
		Settings:  settingsService,
		Health: services.NewHealthService(
			adapters.VectorStore, adapters.EmbeddingService, adapters.LLMService, services.DefaultPingTimeout),
		Close: adapters.Close,
	}, nil
}

func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Join(errors.New("cannot locate home directory, pass --config-dir"), err)
	}
	return filepath.Join(home, file.DefaultDirName), nil
}
