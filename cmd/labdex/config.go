package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benchlab/labdex/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  labdex config                               # Show all config
  labdex config embedding-model               # Get specific value
  labdex config embedding-model all-minilm    # Set value
  labdex config allow-blank-ids true          # Set value

Keys:
  vocabulary            Canonical field names offered to the mapper (comma-separated)
  identity-fields       Duplicate identity tuple, primary field first (comma-separated)
  allow-blank-ids       Import rows with an empty primary identity field (true/false)
  embedding-url         Embedding backend base URL
  embedding-model       Embedding model name
  embedding-dimensions  Embedding vector dimensions`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the JSON shape for showing all config.
type ConfigResponse struct {
	Vocabulary          []string `json:"vocabulary"`
	IdentityFields      []string `json:"identity_fields"`
	AllowBlankIDs       bool     `json:"allow_blank_ids"`
	EmbeddingURL        string   `json:"embedding_url,omitempty"`
	EmbeddingModel      string   `json:"embedding_model,omitempty"`
	EmbeddingDimensions int      `json:"embedding_dimensions,omitempty"`
}

// UpdateResponse is the JSON shape for a config update.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// No args: show all config.
	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("vocabulary:           %s\n", strings.Join(cfg.Vocabulary, ", "))
			fmt.Printf("identity-fields:      %s\n", strings.Join(cfg.IdentityFields, ", "))
			fmt.Printf("allow-blank-ids:      %t\n", cfg.AllowBlankIDs)
			fmt.Printf("embedding-url:        %s\n", cfg.Embedding.BaseURL)
			fmt.Printf("embedding-model:      %s\n", cfg.Embedding.Model)
			fmt.Printf("embedding-dimensions: %d\n", cfg.Embedding.Dimensions)
		} else {
			outputJSON(ConfigResponse{
				Vocabulary:          cfg.Vocabulary,
				IdentityFields:      cfg.IdentityFields,
				AllowBlankIDs:       cfg.AllowBlankIDs,
				EmbeddingURL:        cfg.Embedding.BaseURL,
				EmbeddingModel:      cfg.Embedding.Model,
				EmbeddingDimensions: cfg.Embedding.Dimensions,
			})
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value.
	if len(args) == 1 {
		value, err := configValue(cfg, key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	// Two args: set value.
	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}

	return nil
}

func configValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "vocabulary":
		return strings.Join(cfg.Vocabulary, ", "), nil
	case "identity-fields":
		return strings.Join(cfg.IdentityFields, ", "), nil
	case "allow-blank-ids":
		return strconv.FormatBool(cfg.AllowBlankIDs), nil
	case "embedding-url":
		return cfg.Embedding.BaseURL, nil
	case "embedding-model":
		return cfg.Embedding.Model, nil
	case "embedding-dimensions":
		return strconv.Itoa(cfg.Embedding.Dimensions), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "vocabulary":
		fields := splitCommaList(value)
		if len(fields) == 0 {
			return fmt.Errorf("vocabulary must not be empty")
		}
		cfg.Vocabulary = fields
	case "identity-fields":
		fields := splitCommaList(value)
		if len(fields) == 0 {
			return fmt.Errorf("identity-fields must not be empty")
		}
		cfg.IdentityFields = fields
	case "allow-blank-ids":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("allow-blank-ids must be true or false, got %q", value)
		}
		cfg.AllowBlankIDs = b
	case "embedding-url":
		cfg.Embedding.BaseURL = value
	case "embedding-model":
		cfg.Embedding.Model = value
	case "embedding-dimensions":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("embedding-dimensions must be a positive integer, got %q", value)
		}
		cfg.Embedding.Dimensions = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// normalizeKey converts key formats (embedding_model, embedding-model)
// to a consistent format.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
