// Package config handles loading and managing lifetab configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ReaderConfig holds defaults applied to every reader.
type ReaderConfig struct {
	User         string `toml:"user"`         // User id stamped on rows; empty generates one per read
	Pseudonymize bool   `toml:"pseudonymize"` // Replace identifiers with codes (default: true)
	Timezone     string `toml:"timezone"`     // IANA timezone for unixtime sources (default: UTC)
}

// SentimentConfig holds text-classification service configuration.
type SentimentConfig struct {
	Server    string `toml:"server"`     // Classification server URL
	Model     string `toml:"model"`      // Model name
	BatchSize int    `toml:"batch_size"` // Texts per request
}

type Config struct {
	Reader    ReaderConfig    `toml:"reader"`
	Sentiment SentimentConfig `toml:"sentiment"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default lifetab home directory.
// Respects LIFETAB_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("LIFETAB_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lifetab"
	}
	return filepath.Join(home, ".lifetab")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.lifetab/config.toml).
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		// Defaults
		Reader: ReaderConfig{
			Pseudonymize: true,
			Timezone:     "UTC",
		},
		Sentiment: SentimentConfig{
			Server:    "http://localhost:8801",
			Model:     "sentiment-base",
			BatchSize: 100,
		},
	}

	// Config file is optional - use defaults if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Sentiment.BatchSize <= 0 {
		return nil, fmt.Errorf("sentiment batch_size must be positive, got %d", cfg.Sentiment.BatchSize)
	}

	return cfg, nil
}
