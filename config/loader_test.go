package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Session.HistoryWindow)
	assert.Equal(t, 64, cfg.A2A.InboxSize)
	assert.Equal(t, "coterie", cfg.Metrics.Namespace)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
session:
  history_window: 10
  inactive_age: 1h
router:
  rules:
    research: [research-agent]
redis:
  enabled: true
  addr: redis:6379
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Session.HistoryWindow)
	assert.Equal(t, time.Hour, cfg.Session.InactiveAge)
	assert.Equal(t, []string{"research-agent"}, cfg.Router.Rules["research"])
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)

	// untouched sections keep defaults
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("COTERIE_LOG_LEVEL", "warn")
	t.Setenv("COTERIE_SESSION_CLEANUP_INTERVAL", "30m")
	t.Setenv("COTERIE_TELEMETRY_ENABLED", "true")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Session.CleanupInterval)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_ValidationRejectsBadValues(t *testing.T) {
	t.Setenv("COTERIE_LOG_LEVEL", "loud")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoader_CustomValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			return assert.AnError
		}).
		Load()
	require.Error(t, err)
}

func TestMustLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(path)
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

func TestMustLoad_InvalidFilePanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [broken"), 0o644))

	assert.Panics(t, func() {
		MustLoad(path)
	})
}

func TestLogConfig_BuildLogger(t *testing.T) {
	logger, err := LogConfig{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = LogConfig{Level: "loud"}.BuildLogger()
	assert.Error(t, err)
}
