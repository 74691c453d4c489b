package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// commit is set at build time via -ldflags alongside version.
var commit = ""

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the docqa version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoServices: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		build := runtime.Version()
		if commit != "" {
			build = commit + ", " + build
		}
		cmd.Printf("docqa version %s (%s)\n", version, build)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
