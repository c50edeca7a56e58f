/*
Package config handles loading and saving searchdock configuration.

Configuration is stored as YAML at ~/.searchdock.yaml. A missing file is
not an error: defaults are returned so both tool servers can start with
zero setup.

Schema:

	docs_dir: ./docs
	index_path: ~/.searchdock/index.json
	history_db: ~/.searchdock/history.db
	csv_path: ./data/hr_people.csv
	log_level: info
	chunking:
	  target_size: 1200
	  overlap: 0.15
	search:
	  default_top_k: 5
	  max_top_k: 50
	  ranker: bleve
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Ranker backend names accepted in config and SEARCHDOCK_RANKER.
const (
	RankerBleve  = "bleve"
	RankerNative = "native"
)

// Config represents the root configuration structure.
type Config struct {
	// DocsDir is the directory of text/markdown documents to index.
	DocsDir string `yaml:"docs_dir"`

	// IndexPath is where the built index is persisted.
	IndexPath string `yaml:"index_path"`

	// HistoryDB is the SQLite database for search analytics.
	HistoryDB string `yaml:"history_db"`

	// CSVPath is the HR people CSV served by the db tool server.
	CSVPath string `yaml:"csv_path"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Chunking controls how documents are split into chunks.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Search controls query-time behavior.
	Search SearchConfig `yaml:"search"`
}

// ChunkingConfig controls chunk size and overlap.
type ChunkingConfig struct {
	// TargetSize is the chunk size target in bytes.
	TargetSize int `yaml:"target_size"`

	// Overlap is the fractional overlap between sliding-window chunks (0-0.5).
	Overlap float64 `yaml:"overlap"`
}

// SearchConfig controls query-time behavior.
type SearchConfig struct {
	// DefaultTopK is used when a search request omits top_k.
	DefaultTopK int `yaml:"default_top_k"`

	// MaxTopK is the server-enforced upper bound on top_k.
	MaxTopK int `yaml:"max_top_k"`

	// Ranker selects the ranking backend: "bleve" or "native".
	// The SEARCHDOCK_RANKER environment variable takes priority.
	Ranker string `yaml:"ranker"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".searchdock")

	return &Config{
		DocsDir:   "./docs",
		IndexPath: filepath.Join(dataDir, "index.json"),
		HistoryDB: filepath.Join(dataDir, "history.db"),
		CSVPath:   "./data/hr_people.csv",
		LogLevel:  "info",
		Chunking: ChunkingConfig{
			TargetSize: 1200,
			Overlap:    0.15,
		},
		Search: SearchConfig{
			DefaultTopK: 5,
			MaxTopK:     50,
			Ranker:      RankerBleve,
		},
	}
}

// DefaultPath returns the path to ~/.searchdock.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".searchdock.yaml"), nil
}

// Load reads the configuration from the default path, falling back to
// defaults when the file does not exist.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from a specific path. A missing file
// yields the default configuration.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyBounds()
	return cfg, nil
}

// Save writes the configuration to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// RankerBackend resolves the ranker backend, giving the SEARCHDOCK_RANKER
// environment variable priority over the config file.
func (c *Config) RankerBackend() string {
	if env := os.Getenv("SEARCHDOCK_RANKER"); env != "" {
		return env
	}
	if c.Search.Ranker != "" {
		return c.Search.Ranker
	}
	return RankerBleve
}

// applyBounds clamps out-of-range values back to defaults.
func (c *Config) applyBounds() {
	if c.Chunking.TargetSize <= 0 {
		c.Chunking.TargetSize = 1200
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap > 0.5 {
		c.Chunking.Overlap = 0.15
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 50
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		c.Search.DefaultTopK = c.Search.MaxTopK
	}
}
