package main

import (
	"fmt"
	"os"

	"github.com/benchlab/labdex/internal/config"
	"github.com/benchlab/labdex/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new labdex repository",
	Long: `Initialize a new labdex repository in the current directory.

Creates:
  .labdex/
  ├── config.yml      # Default config (vocabulary, identity fields)
  └── labdex.db       # Empty SQLite database`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a labdex repository")
	}

	if err := os.MkdirAll(config.LabdexPath(root), 0755); err != nil {
		exitWithError(ExitError, "creating .labdex directory: %v", err)
	}

	cfg := config.Default()
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	db, err := store.Open(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "creating database: %v", err)
	}
	db.Close()

	if humanOutput {
		fmt.Printf("Initialized labdex repository in %s\n", config.LabdexPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.LabdexPath(root)})
	}

	return nil
}
