package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, 3, cfg.MaxWorkers)
	assert.Equal(t, DefaultClaudeCommand, cfg.Planner.Command)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	data := []byte("listen: \"0.0.0.0:9000\"\nmax_workers: 5\nplanner:\n  command: claude-next\n  model: opus\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, 5, cfg.MaxWorkers)
	assert.Equal(t, "claude-next", cfg.Planner.Command)
	assert.Equal(t, "opus", cfg.Planner.Model)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultClaudeCommand, cfg.Agent.Command)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("listen: \"0.0.0.0:9000\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644))
	t.Setenv("CREW_LISTEN", "127.0.0.1:7000")
	t.Setenv("CREW_AGENT_MODEL", "sonnet")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
	assert.Equal(t, "sonnet", cfg.Agent.Model)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CREW_PLANNER_CMD=from-dotenv\n"), 0o644))
	t.Setenv("CREW_PLANNER_CMD", "")
	os.Unsetenv("CREW_PLANNER_CMD")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Planner.Command)
}

func TestLoad_RelativeDataDirResolved(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("data_dir: state\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "state"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "state", "runs"), cfg.RunsDir())
	assert.Equal(t, filepath.Join(dir, "state", "journal.db"), cfg.JournalPath())
}

func TestLoad_Validation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("max_workers: 50\n"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("log_level: loud\n"), 0o644))
	_, err = Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("listen: [broken\n"), 0o644))
	_, err = Load(dir)
	assert.Error(t, err)
}

func TestHealth_ReportsBinaryPresence(t *testing.T) {
	cfg := Default()
	cfg.Planner.Command = "sh"
	cfg.Agent.Command = "definitely-not-a-binary-xyz"

	health := cfg.Health()
	require.Len(t, health, 2)
	assert.Equal(t, "planner", health[0].Name)
	assert.True(t, health[0].Available)
	assert.Equal(t, "agent", health[1].Name)
	assert.False(t, health[1].Available)
}
