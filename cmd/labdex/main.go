// Package main provides the labdex CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "labdex",
	Short: "Lab-data intake and retrieval tool",
	Long: `labdex ingests spreadsheet exports of experiment records.

Uploaded column headers are matched to canonical fields by embedding
similarity, rows are reconciled against the existing records to catch
duplicates, and accepted rows land in a searchable SQLite store. All
commands output JSON by default for easy scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory repository discovery
// starts from: LABDEX_ROOT when set, otherwise the working directory.
func getStartingDirectory() (string, int) {
	if root := os.Getenv("LABDEX_ROOT"); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}
