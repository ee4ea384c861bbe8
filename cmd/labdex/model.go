package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modelCmd)
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Check the embedding backend",
	Long: `Check that the embedding backend is reachable and the
configured model is available. Mapping suggestions need both; imports
with explicit --map assignments work without either.`,
	RunE: runModel,
}

// ModelStatus is the response for the model command.
type ModelStatus struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Available  bool   `json:"available"`
	Error      string `json:"error,omitempty"`
}

func runModel(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	provider := embeddingProvider(cfg)
	status := ModelStatus{
		Model:      provider.ModelName(),
		Dimensions: provider.Dimensions(),
		Available:  true,
	}
	if err := checkProvider(cmd.Context(), provider); err != nil {
		status.Available = false
		status.Error = err.Error()
	}

	if humanOutput {
		if status.Available {
			fmt.Printf("Embedding model %s (%d dimensions) is available\n", status.Model, status.Dimensions)
		} else {
			fmt.Printf("Embedding model %s is NOT available: %s\n", status.Model, status.Error)
		}
	} else {
		outputJSON(status)
	}

	if !status.Available {
		// Non-zero exit so scripts can gate on availability.
		os.Exit(ExitModelNotFound)
	}
	return nil
}
