package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/benchlab/labdex/internal/config"
	"github.com/benchlab/labdex/internal/embedding"
	"github.com/benchlab/labdex/internal/store"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v (run 'labdex init' first)", err)
	}
	return repoRoot
}

// mustLoadConfig loads the repository config, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the SQLite store, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenStore(repoRoot string) *store.DB {
	db, err := store.Open(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

var (
	providerOnce   sync.Once
	sharedProvider *embedding.OllamaProvider
)

// embeddingProvider returns the process-wide embedding provider,
// built lazily from repository config and environment overrides.
func embeddingProvider(cfg *config.Config) *embedding.OllamaProvider {
	providerOnce.Do(func() {
		var opts []embedding.OllamaOption
		if url := os.Getenv("LABDEX_OLLAMA_URL"); url != "" {
			opts = append(opts, embedding.WithBaseURL(url))
		} else if cfg.Embedding.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(cfg.Embedding.BaseURL))
		}
		if cfg.Embedding.Model != "" {
			opts = append(opts, embedding.WithModel(cfg.Embedding.Model))
		}
		if cfg.Embedding.Dimensions > 0 {
			opts = append(opts, embedding.WithDimensions(cfg.Embedding.Dimensions))
		}
		sharedProvider = embedding.NewOllamaProvider(opts...)
	})
	return sharedProvider
}

// checkProvider probes the embedding backend and reports whether the
// configured model is present.
func checkProvider(ctx context.Context, p *embedding.OllamaProvider) error {
	if err := p.IsAvailable(ctx); err != nil {
		return err
	}
	ok, err := p.HasModel(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("model %q not found (try: ollama pull %s)", p.ModelName(), p.ModelName())
	}
	return nil
}
