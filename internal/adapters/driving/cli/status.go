package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

// errNotReady makes status exit non-zero when a component is down.
var errNotReady = errors.New("docqa is not ready")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the vector store, embedding model and LLM",
	Long: `Ping every dependency a question needs and report each one.
Exits non-zero unless all of them answer.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return notConfigured("health service")
	}

	readiness := healthService.Ready(cmd.Context())

	if statusJSON {
		data, err := json.MarshalIndent(readiness, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, c := range readiness.Components {
			if c.Ready {
				cmd.Printf("  %-16s ok\n", c.Name)
				continue
			}
			cmd.Printf("  %-16s FAILED: %s\n", c.Name, c.Error)
		}
	}

	if !readiness.Ready {
		return errNotReady
	}
	if !statusJSON {
		cmd.Println("\nReady.")
	}
	return nil
}
