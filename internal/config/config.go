// Package config handles repository discovery and configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/benchlab/labdex/internal/field"
)

// Config represents repository configuration stored in .labdex/config.yml.
type Config struct {
	// Vocabulary is the ordered canonical field set offered to the
	// column mapper. Order matters: similarity ties resolve to the
	// lowest index.
	Vocabulary []string `yaml:"vocabulary"`

	// IdentityFields is the tuple used for duplicate classification.
	// The first entry is the primary field.
	IdentityFields []string `yaml:"identity_fields"`

	// AllowBlankIDs permits importing rows whose primary identity
	// field is empty. Default false: such rows are skipped.
	AllowBlankIDs bool `yaml:"allow_blank_ids"`

	Embedding EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

const (
	LabdexDir     = ".labdex"
	ConfigFile    = "config.yml"
	DBFile        = "labdex.db"
	ProtocolsFile = "protocols.json"
)

// Default returns the default configuration for a new repository.
func Default() *Config {
	return &Config{
		Vocabulary:     append([]string(nil), field.DefaultVocabulary...),
		IdentityFields: append([]string(nil), field.DefaultIdentityFields...),
	}
}

// LabdexPath returns the path to the .labdex directory from a root path.
func LabdexPath(root string) string {
	return filepath.Join(root, LabdexDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, LabdexDir, ConfigFile)
}

// DBPath returns the path to the SQLite database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, LabdexDir, DBFile)
}

// ProtocolsPath returns the path to the protocol registry from a root path.
func ProtocolsPath(root string) string {
	return filepath.Join(root, LabdexDir, ProtocolsFile)
}

// IsRepository checks if the given path contains a labdex repository.
func IsRepository(root string) bool {
	info, err := os.Stat(LabdexPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a labdex repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a labdex repository (no .labdex directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Missing optional values fall back to defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = append([]string(nil), field.DefaultVocabulary...)
	}
	if len(cfg.IdentityFields) == 0 {
		cfg.IdentityFields = append([]string(nil), field.DefaultIdentityFields...)
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
