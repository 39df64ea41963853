package config

import (
	"os"
	"path/filepath"

	"github.com/driftworks/crew/internal/model"
)

// Default CLI commands per capability.
const (
	DefaultClaudeCommand = "claude"
	DefaultListen        = "127.0.0.1:4177"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:    defaultDataDir(),
		Listen:     DefaultListen,
		MaxWorkers: model.DefaultMaxWorkers,
		Planner:    ProviderConfig{Command: DefaultClaudeCommand},
		Agent:      ProviderConfig{Command: DefaultClaudeCommand},
		LogLevel:   "info",
	}
}

// defaultDataDir is ~/.crew, falling back to ./.crew when the home
// directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crew"
	}
	return filepath.Join(home, ".crew")
}
