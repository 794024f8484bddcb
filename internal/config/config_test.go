package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "maintenance:\n  gist_id: abc123\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "/maintenance.html", cfg.Server.MaintenancePage)
	assert.Equal(t, 10*time.Second, cfg.Common.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Maintenance.CacheDuration)
	assert.True(t, cfg.Maintenance.FallbackToLocalStorage)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "maintenance-state.yaml", cfg.Store.Path)
	assert.Equal(t, "abc123", cfg.Maintenance.GistID)
}

func TestLoadExplicitFallbackOff(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
maintenance:
  direct_url: https://example.com/status.json
  fallback_to_local_storage: false
  cache_duration: 30s
store:
  driver: sqlite
`))
	require.NoError(t, err)
	assert.False(t, cfg.Maintenance.FallbackToLocalStorage)
	assert.Equal(t, 30*time.Second, cfg.Maintenance.CacheDuration)
	assert.Equal(t, "maintenance-state.db", cfg.Store.Path)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MGATE_MAINTENANCE_GIST_ID", "fromenv")
	t.Setenv("MGATE_SERVER_ALLOW_PREFIXES", "/assets/,/fonts/")
	t.Setenv("MGATE_COMMON_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "maintenance:\n  gist_id: fromfile\n"))
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Maintenance.GistID)
	assert.Equal(t, []string{"/assets/", "/fonts/"}, cfg.Server.AllowPrefixes)
	assert.Equal(t, "debug", cfg.Common.LogLevel)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Maintenance.GistID)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "server: [\n"))
	assert.ErrorContains(t, err, "parse yaml")

	_, err = Load(writeConfig(t, "store:\n  driver: redis\n"))
	assert.ErrorContains(t, err, "unknown store driver")
}
