package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// explain prints a QueryError's message, suggestions and citations.
// Other errors are returned unchanged for cobra to print.
func explain(cmd *cobra.Command, err error) error {
	var qerr *domain.QueryError
	if !errors.As(err, &qerr) {
		return err
	}

	cmd.PrintErrf("Error (%s): %s\n", qerr.Reason, qerr.Message)
	if len(qerr.Suggestions) > 0 {
		cmd.PrintErrln("\nSuggestions:")
		for _, s := range qerr.Suggestions {
			cmd.PrintErrf("  - %s\n", s)
		}
	}
	if len(qerr.Citations) > 0 {
		cmd.PrintErrln("\nClosest sources considered:")
		for i := range qerr.Citations {
			c := qerr.Citations[i]
			cmd.PrintErrf("  [%d] %s, p.%d (%.0f%%)\n", i+1, c.DocumentTitle, c.PageNumber, c.Score*100)
		}
	}
	return err
}
