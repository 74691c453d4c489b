// Package cli provides the cobra command tree for docqa.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationNoServices marks commands that run without the core services.
const annotationNoServices = "docqa/no-services"

// defaultTenant is used when neither --tenant nor the config names one.
const defaultTenant = "default"

// Options are the global flags handed to the bootstrap function.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Services holds the core services the commands drive.
type Services struct {
	Documents driving.DocumentService
	Query     driving.QueryService
	Usage     driving.UsageService
	Settings  driving.SettingsService
	Health    driving.HealthService

	// Close releases adapters. May be nil.
	Close func()
}

// Bootstrap builds the services once the global flags are parsed.
type Bootstrap func(opts Options) (*Services, error)

var (
	documentService driving.DocumentService
	queryService    driving.QueryService
	usageService    driving.UsageService
	settingsService driving.SettingsService
	healthService   driving.HealthService
	closeServices   func()

	bootstrap Bootstrap

	flagVerbose   bool
	flagLogLevel  string
	flagTenant    string
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Grounded question answering over your documents",
	Long: `docqa ingests PDF documents, indexes them as embedded chunks and answers
questions strictly from their content, citing the pages it used.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if closeServices != nil {
			closeServices()
			closeServices = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print pipeline diagnostics")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "lowest log level written: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&flagTenant, "tenant", "t", "", "tenant to act for (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default ~/.docqa)")
}

// SetBootstrap registers the function that wires the services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs ready-made services, bypassing the bootstrap.
func SetServices(s *Services) {
	documentService = s.Documents
	queryService = s.Query
	usageService = s.Usage
	settingsService = s.Settings
	healthService = s.Health
	closeServices = s.Close
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)
	if flagLogLevel != "" && !flagVerbose {
		level, err := logger.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	if cmd.Annotations[annotationNoServices] == "true" || bootstrap == nil {
		return nil
	}
	if documentService != nil || queryService != nil {
		return nil
	}

	services, err := bootstrap(Options{ConfigDir: flagConfigDir, Verbose: flagVerbose})
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	SetServices(services)
	return nil
}

// tenant resolves the acting tenant: flag, then config, then the default.
func tenant() string {
	if flagTenant != "" {
		return flagTenant
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.TenantID != "" {
			return settings.TenantID
		}
	}
	return defaultTenant
}

var errNotConfigured = errors.New("service not configured")

func notConfigured(name string) error {
	return fmt.Errorf("%s %w", name, errNotConfigured)
}
