package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var usageJSON bool

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's query and cost counters",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show limits, pricing and providers",
	Args:  cobra.NoArgs,
	RunE:  runSystem,
}

func init() {
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(systemCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	if usageService == nil {
		return notConfigured("usage service")
	}

	snap, err := usageService.Snapshot(cmd.Context(), tenant())
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}

	if usageJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal usage: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Usage for %s (UTC)\n\n", snap.Period)
	cmd.Printf("  Queries:   %d / %d\n", snap.Queries, snap.MaxQueries)
	cmd.Printf("  Cost:      $%.4f / $%.2f\n", snap.CostUSD, snap.MaxCostUSD)
	cmd.Printf("  Tokens:    %d (%d in, %d out)\n", snap.TotalTokens, snap.InputTokens, snap.OutputTokens)
	cmd.Printf("  Documents: %d\n", snap.DocumentsStored)
	return nil
}

func runSystem(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Limits]")
	cmd.Printf("  Max documents:      %d\n", s.Limits.MaxDocuments)
	cmd.Printf("  Max pages/document: %d\n", s.Limits.MaxPagesPerDocument)
	cmd.Printf("  Max file size:      %d MB\n", s.Limits.MaxFileSizeMB)
	cmd.Printf("  Daily queries:      %d\n", s.Limits.MaxDailyQueries)
	cmd.Printf("  Daily cost:         $%.2f\n", s.Limits.MaxDailyCostUSD)
	cmd.Println()
	cmd.Println("[Pricing per 1K tokens]")
	cmd.Printf("  Input:  $%.5f\n", s.Pricing.InputPer1K)
	cmd.Printf("  Output: $%.5f\n", s.Pricing.OutputPer1K)
	cmd.Println()
	cmd.Println("[Providers]")
	cmd.Printf("  Embedding:    %s (%s)\n", s.Embedding.Provider.Description(), s.Embedding.Model)
	cmd.Printf("  LLM:          %s (%s)\n", s.LLM.Provider.Description(), s.LLM.Model)
	cmd.Printf("  Vector store: %s\n", s.VectorStore.Backend)
	return nil
}
