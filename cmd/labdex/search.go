package main

import (
	"fmt"

	"github.com/benchlab/labdex/internal/search"
	"github.com/benchlab/labdex/internal/store"
	"github.com/spf13/cobra"
)

var (
	searchResearcher string
	searchSampleID   string
	searchDate       string
)

func init() {
	searchCmd.Flags().StringVar(&searchResearcher, "researcher", "", "Filter by researcher (substring)")
	searchCmd.Flags().StringVar(&searchSampleID, "sample-id", "", "Filter by sample id (substring)")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Filter by date (substring)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search records by keyword and filters",
	Long: `Search records by keyword and filters.

A free-text query goes through the full-text index; any filters narrow
that result set by case-insensitive substring match. Filters without a
query match directly against the store. No arguments lists everything.

Examples:
  labdex search "0001"
  labdex search Fran --date 2025-12
  labdex search --researcher Fran
  labdex search --sample-id S-00`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	q := search.Query{
		Researcher: searchResearcher,
		SampleID:   searchSampleID,
		Date:       searchDate,
	}
	if len(args) > 0 {
		q.Text = args[0]
	}

	results, err := search.Run(db, q)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if humanOutput {
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		fmt.Printf("Found %d result(s):\n\n", len(results))
		printSamplesHuman(results)
	} else {
		if results == nil {
			results = []store.Sample{}
		}
		outputJSON(results)
	}

	return nil
}

// printSamplesHuman prints samples one per line.
func printSamplesHuman(samples []store.Sample) {
	for _, s := range samples {
		fmt.Printf("  %-12s %-16s expressed=%-4s project=%-8s %s\n",
			s.SampleID, s.Researcher, s.Expressed, s.ProjectID, s.Date)
	}
}
