package main

import (
	"errors"
	"fmt"

	"github.com/benchlab/labdex/internal/embedding"
	"github.com/benchlab/labdex/internal/mapping"
	"github.com/benchlab/labdex/internal/tabular"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(suggestCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <file.csv>",
	Short: "Suggest a column mapping for an upload",
	Long: `Suggest a column mapping for an upload.

Reads the CSV header and matches each column name against the canonical
field vocabulary by embedding similarity. Suggestions are a starting
point: override any of them with --map flags on 'labdex import'.

Examples:
  labdex suggest plates.csv
  labdex suggest plates.csv --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

// SuggestResult is the response for the suggest command.
type SuggestResult struct {
	Model       string               `json:"model"`
	Suggestions []mapping.Suggestion `json:"suggestions"`
	Conflicts   []mapping.Conflict   `json:"conflicts,omitempty"`
}

func runSuggest(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	table, err := tabular.ReadCSVFile(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading table: %v", err)
	}

	provider := embeddingProvider(cfg)
	suggestions, err := mapping.Suggest(cmd.Context(), provider, table.Columns, cfg.Vocabulary)
	if err != nil {
		if errors.Is(err, embedding.ErrModelUnavailable) {
			exitWithError(ExitModelNotFound,
				"embedding backend unavailable, map columns manually with --map: %v", err)
		}
		exitWithError(ExitError, "suggesting mapping: %v", err)
	}

	result := SuggestResult{Model: provider.ModelName(), Suggestions: suggestions}

	// Duplicate targets are surfaced, not silently resolved: the
	// import will reject this mapping until the user overrides it.
	assignments := make([]mapping.Assignment, len(suggestions))
	for i, s := range suggestions {
		assignments[i] = mapping.Assignment{Column: s.Column, Field: s.Field}
	}
	var conflictErr *mapping.ConflictError
	if _, err := mapping.Build(assignments); errors.As(err, &conflictErr) {
		result.Conflicts = conflictErr.Conflicts
	}

	if humanOutput {
		fmt.Printf("Suggested mapping (%s):\n\n", result.Model)
		for _, s := range suggestions {
			fmt.Printf("  %-24s -> %-12s [%.2f]\n", s.Column, s.Field, s.Similarity)
		}
		for _, c := range result.Conflicts {
			fmt.Printf("\nwarning: %q suggested for multiple columns: %v\n", c.Field, c.Columns)
		}
	} else {
		outputJSON(result)
	}

	return nil
}
