// Package config loads lvparse settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/lvparse/pkg/abbrev"
)

// Environment variables overriding file settings.
const (
	EnvLogDir  = "LVPARSE_LOG_DIR"
	EnvWorkers = "LVPARSE_WORKERS"
	EnvStore   = "LVPARSE_STORE"
)

// Config holds the settings shared by all commands.
type Config struct {
	// Abbreviations are inline street-name rules, applied before the rules
	// of AbbreviationsFile.
	Abbreviations []abbrev.Rule `yaml:"abbreviations"`

	// AbbreviationsFile is an extra rules file. A relative path is resolved
	// against the directory of the config file.
	AbbreviationsFile string `yaml:"abbreviations_file"`

	// LogDir receives the daily diagnostics log.
	LogDir string `yaml:"log_dir"`

	// Workers is the number of unit blocks parsed concurrently.
	Workers int `yaml:"workers"`

	// Store is the SQLite database path. Empty disables persistence.
	Store string `yaml:"store"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogDir:  ".",
		Workers: 1,
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if cfg.AbbreviationsFile != "" && !filepath.IsAbs(cfg.AbbreviationsFile) {
			cfg.AbbreviationsFile = filepath.Join(filepath.Dir(path), cfg.AbbreviationsFile)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		c.LogDir = dir
	}
	if store := os.Getenv(EnvStore); store != "" {
		c.Store = store
	}
	if workers := os.Getenv(EnvWorkers); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, workers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.LogDir == "" {
		c.LogDir = "."
	}
	for i, r := range c.Abbreviations {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("abbreviation %d: %w", i, err)
		}
	}
	return nil
}

// Table returns the inline abbreviation rules as a table.
func (c *Config) Table() (abbrev.Table, error) {
	return abbrev.NewTable(c.Abbreviations...)
}
