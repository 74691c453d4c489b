package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	ingestTitle string
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf]",
	Short: "Ingest a PDF document",
	Long: `Extracts the document's pages, splits them into overlapping chunks,
embeds the chunks and stores them for the current tenant.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (default derived from the file name)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document service")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := documentService.Ingest(cmd.Context(), domain.IngestRequest{
		TenantID: tenant(),
		Filename: filepath.Base(path),
		Title:    ingestTitle,
		Content:  content,
	})
	if err != nil {
		return explain(cmd, err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Ingested: %s\n\n", result.Title)
	cmd.Printf("  ID:       %s\n", result.ID)
	cmd.Printf("  Pages:    %d\n", result.PageCount)
	cmd.Printf("  Chunks:   %d\n", result.ChunkCount)
	if len(result.Sections) > 0 {
		cmd.Printf("  Sections: %s\n", strings.Join(result.Sections, "; "))
	}
	cmd.Printf("  Took:     %s\n", result.ProcessingTime.Round(time.Millisecond))
	return nil
}
