package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write CSV to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all records as CSV",
	Long: `Export all records as CSV, newest first.

Examples:
  labdex export > records.csv
  labdex export --out records.csv`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenStore(repoRoot)
	defer db.Close()

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			exitWithError(ExitError, "creating %s: %v", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	n, err := db.ExportCSV(out)
	if err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if exportOut != "" {
		if humanOutput {
			fmt.Printf("Exported %d record(s) to %s\n", n, exportOut)
		} else {
			outputJSON(StatusResponse{Status: fmt.Sprintf("exported %d records", n), Path: exportOut})
		}
	}

	return nil
}
