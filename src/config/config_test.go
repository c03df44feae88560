package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"series-explorer/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "series-explorer", cfg.Name)
	assert.Equal(t, 300*time.Millisecond, cfg.Explorer.Debounce)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Explorer.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.Network.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.DataService.Storage.DBType)
	assert.Equal(t, 329, cfg.DataService.FRED.CategoryID)
	assert.False(t, cfg.DataService.LegacyValueKey)
}

func TestNewConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
explorer:
  port: 9000
  debounce: 50ms
network:
  timeout: 2s
  retries: 0
data_service:
  legacy_value_key: true
  storage:
    db_type: sqlite
    db_path: /tmp/series.db
`)
	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9000, cfg.Explorer.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Explorer.Debounce)
	assert.Equal(t, "127.0.0.1", cfg.Explorer.Host, "unset keys keep their default")
	assert.Equal(t, 2*time.Second, cfg.Network.RequestTimeout)
	assert.Equal(t, 0, cfg.Network.MaxRetries)
	assert.True(t, cfg.DataService.LegacyValueKey)
	assert.Equal(t, "/tmp/series.db", cfg.DataService.Storage.DBPath)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "http://data.internal:8080")
	t.Setenv(EnvFREDAPIKey, "secret")

	cfg, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://data.internal:8080", cfg.Explorer.APIBaseURL)
	assert.Equal(t, "secret", cfg.DataService.FRED.APIKey)
}

func TestNewConfig_InvalidYAML(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "explorer: [unclosed"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad explorer port", func(c *Config) { c.Explorer.Port = 80 }},
		{"negative debounce", func(c *Config) { c.Explorer.Debounce = -time.Second }},
		{"zero timeout", func(c *Config) { c.Network.RequestTimeout = 0 }},
		{"unknown db type", func(c *Config) { c.DataService.Storage.DBType = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DataService.Storage.DBType = "postgres" }},
		{"fred without key", func(c *Config) { c.DataService.FRED.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *helpers.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Explorer.Debounce = 75 * time.Millisecond
	cfg.DataService.FRED.Series = []string{"UNRATE", "DGS10"}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 75*time.Millisecond, loaded.Explorer.Debounce)
	assert.Equal(t, []string{"UNRATE", "DGS10"}, loaded.DataService.FRED.Series)
}
