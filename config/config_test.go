package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waldiez-stream/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WALDIEZ_STREAM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, ModeChat, cfg.Mode)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadYAMLWinsOverDefaults(t *testing.T) {
	// t.Setenv snapshots the variable for restore; the unset makes the test
	// immune to ambient values leaking in from the host environment.
	for _, key := range []string{"PORT", "MODE", "LOG_DIR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: step\nport: \"9999\"\nlog_dir: customlogs\n"), 0644))
	t.Setenv("WALDIEZ_STREAM_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeStep, cfg.Mode)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "customlogs", cfg.LogDir)
	assert.True(t, cfg.MetricsEnabled, "fields the yaml omits keep their defaults")
}

func TestLoadEnvironmentWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: step\nport: \"9999\"\n"), 0644))

	t.Setenv("WALDIEZ_STREAM_CONFIG", path)
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeStep, cfg.Mode, "yaml override applies")
	assert.Equal(t, "7000", cfg.Port, "environment wins over yaml")
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	t.Setenv("WALDIEZ_STREAM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("MODE", "sideways")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

func TestSuppressLogTypes(t *testing.T) {
	t.Setenv("WALDIEZ_STREAM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SUPPRESS_LOG_TYPES", "debug_print,debug_stats")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.ShouldLogForType("debug_print"))
	assert.False(t, cfg.ShouldLogForType("debug_stats"))
	assert.True(t, cfg.ShouldLogForType("text"))
}

func TestGetMinLogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	assert.Equal(t, logger.WARN, cfg.GetMinLogLevel())

	cfg = &Config{LogLevel: "nonsense"}
	assert.Equal(t, logger.INFO, cfg.GetMinLogLevel())
}
