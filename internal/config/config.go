// Package config loads crew's configuration: defaults, then an
// optional .crew.yaml, then CREW_* environment overrides. A .env file
// next to the config is folded into the environment first.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the working directory.
const ConfigFileName = ".crew.yaml"

// Config holds all configuration. Immutable after Load.
type Config struct {
	// DataDir is where run records and the event journal live.
	DataDir string `yaml:"data_dir"`

	// Listen is the daemon's HTTP listen address.
	Listen string `yaml:"listen"`

	// MaxWorkers is the default per-run parallelism when a run does
	// not specify one.
	MaxWorkers int `yaml:"max_workers"`

	// Planner configures the planning/judging model.
	Planner ProviderConfig `yaml:"planner"`

	// Agent configures the worker agent processes.
	Agent ProviderConfig `yaml:"agent"`

	// LogLevel controls log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// ProviderConfig selects the CLI binary and model for one capability.
type ProviderConfig struct {
	// Command is the CLI binary path or name.
	Command string `yaml:"command"`

	// Model overrides the CLI's default model when set.
	Model string `yaml:"model,omitempty"`
}

// RunsDir is where per-run records are stored.
func (c *Config) RunsDir() string { return filepath.Join(c.DataDir, "runs") }

// JournalPath is the event journal database file.
func (c *Config) JournalPath() string { return filepath.Join(c.DataDir, "journal.db") }

// Load reads configuration from dir. A missing config file is not an
// error; defaults apply.
func Load(dir string) (*Config, error) {
	// Optional; keeps credentials out of the config file.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(dir, cfg.DataDir)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if cfg.MaxWorkers < 1 || cfg.MaxWorkers > 10 {
		return fmt.Errorf("max_workers must be in [1, 10], got %d", cfg.MaxWorkers)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return nil
}
