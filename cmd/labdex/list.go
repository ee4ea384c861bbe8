package main

import (
	"fmt"

	"github.com/benchlab/labdex/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all records",
	Long: `List all records in the repository, newest first.

Examples:
  labdex list
  labdex list --human`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	samples, err := db.ListAll()
	if err != nil {
		exitWithError(ExitError, "listing records: %v", err)
	}

	if humanOutput {
		if len(samples) == 0 {
			fmt.Println("No records in repository")
			return nil
		}
		fmt.Printf("%d record(s) in repository:\n\n", len(samples))
		printSamplesHuman(samples)
	} else {
		if samples == nil {
			samples = []store.Sample{}
		}
		outputJSON(samples)
	}

	return nil
}
