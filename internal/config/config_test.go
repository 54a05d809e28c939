package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "laneview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
hierarchy:
  groupByApp: false
  appLabelKeys:
    - team
rollout:
  markers: ["spec.paused"]
engine:
  workers: 3
  cacheSize: 16
log:
  level: debug
  packages:
    hierarchy: debug
    timeline: warn
tracing:
  enabled: true
  endpoint: collector:4317
  insecure: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Hierarchy.GroupByApp)
	assert.Equal(t, []string{"team"}, cfg.Hierarchy.AppLabelKeys)
	assert.Equal(t, []string{"spec.paused"}, cfg.Rollout.Markers)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.Equal(t, 16, cfg.Engine.CacheSize)
	assert.True(t, cfg.Engine.CacheEnabled, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, map[string]string{"hierarchy": "debug", "timeline": "warn"}, cfg.Log.Packages)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.True(t, cfg.Tracing.Insecure)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  workers: 3
`)
	t.Setenv("LANEVIEW_ENGINE__WORKERS", "9")
	t.Setenv("LANEVIEW_HIERARCHY__GROUPBYAPP", "false")
	t.Setenv("LANEVIEW_ROLLOUT__MARKERS", "image(,replicas")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Engine.Workers)
	assert.False(t, cfg.Hierarchy.GroupByApp)
	assert.Equal(t, []string{"image(", "replicas"}, cfg.Rollout.Markers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "engine: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
tracing:
  enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"grouping without label keys", func(c *Config) { c.Hierarchy.AppLabelKeys = nil }, "appLabelKeys"},
		{"grouping disabled without label keys", func(c *Config) {
			c.Hierarchy.GroupByApp = false
			c.Hierarchy.AppLabelKeys = nil
		}, ""},
		{"blank marker", func(c *Config) { c.Rollout.Markers = []string{"image(", " "} }, "markers"},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }, "workers"},
		{"zero cache size", func(c *Config) { c.Engine.CacheSize = 0 }, "cacheSize"},
		{"zero cache size with cache disabled", func(c *Config) {
			c.Engine.CacheEnabled = false
			c.Engine.CacheSize = 0
		}, ""},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
