// Package cli wires configuration, providers and the pipeline into the
// bughound command.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bughound",
	Short: "LLM-assisted bug finder for C++ test program snippets",
	Long: `Bughound analyzes C++ code snippets for bugs using a language model
cross-checked against retrieved API documentation and static analysis.
It reads snippets from a CSV file and writes one finding per row.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("bughound version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
