package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	askDocuments []string
	askCitations int
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the passages most relevant to the question and answers from
them only, citing each source used. Questions are 10 to 500 characters.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askDocuments, "doc", "d", nil, "restrict to a document id (repeatable)")
	askCmd.Flags().IntVarP(&askCitations, "citations", "n", 0, "maximum citations, 1-10 (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return notConfigured("query service")
	}

	resp, err := queryService.Ask(cmd.Context(), domain.QueryRequest{
		TenantID:     tenant(),
		Question:     strings.Join(args, " "),
		DocumentIDs:  askDocuments,
		MaxCitations: askCitations,
	})
	if err != nil {
		return explain(cmd, err)
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputAnswer(cmd, resp)
	return nil
}

func outputAnswer(cmd *cobra.Command, resp *domain.QueryResponse) {
	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %s\n", resp.Confidence)
	if resp.Warning != "" {
		cmd.Printf("Warning: %s\n", resp.Warning)
	}

	if len(resp.Citations) > 0 {
		cmd.Println("\nSources:")
		for i := range resp.Citations {
			c := resp.Citations[i]
			location := fmt.Sprintf("p.%d", c.PageNumber)
			if c.SectionTitle != "" {
				location += ", " + c.SectionTitle
			}
			cmd.Printf("  [%d] %s (%s) %.0f%%\n", i+1, c.DocumentTitle, location, c.Score*100)
		}
	}

	u := resp.Usage
	cmd.Printf("\nTokens: %d in / %d out, cost $%.5f, %s\n",
		u.InputTokens, u.OutputTokens, u.CostUSD, u.Timing.Total.Round(time.Millisecond))
}
