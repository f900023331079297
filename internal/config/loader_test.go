package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/pkg/errors"
)

const validConfigYAML = `
database:
  path: "/var/lib/shg/records.db"
  busy_timeout: 5s
analytics:
  clusters: 4
  util_threshold: 0.4
cache:
  enabled: true
  addr: "cache:6379"
  ttl: 2m
advisory:
  api_key: "test-key"
log:
  level: debug
  format: console
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/shg/records.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, 4, cfg.Analytics.Clusters)
	assert.Equal(t, 0.4, cfg.Analytics.UtilThreshold)
	assert.Equal(t, 100.0, cfg.Analytics.MinCapacity)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "cache:6379", cfg.Cache.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "test-key", cfg.Advisory.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SHG_ANALYTICS_CLUSTERS", "9")
	t.Setenv("SHG_DATABASE_PATH", "/tmp/override.db")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Analytics.Clusters)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "log:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("SHG_CACHE_ENABLED", "true")
	t.Setenv("SHG_CACHE_ADDR", "redis.internal:6380")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis.internal:6380", cfg.Cache.Addr)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultAdvisoryModel, cfg.Advisory.Model)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {})
	assert.Error(t, err)
}

func TestWatch_InvokesCallbackOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 1)
	require.NoError(t, Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}))

	updated := validConfigYAML + "\nmetrics:\n  namespace: edited\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "edited", cfg.Metrics.Namespace)
	case <-time.After(5 * time.Second):
		t.Skip("file watcher did not fire within the deadline on this platform")
	}
}

func TestDiscover_Explicit(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	cfg, used, err := Discover(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 4, cfg.Analytics.Clusters)
}

func TestDiscover_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shg.yaml"), []byte("analytics:\n  clusters: 3\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, used, err := Discover("")
	require.NoError(t, err)
	assert.Equal(t, "shg.yaml", used)
	assert.Equal(t, 3, cfg.Analytics.Clusters)
}

func TestSearchPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	paths := SearchPaths()
	require.Len(t, paths, 3)
	assert.Equal(t, "shg.yaml", paths[0])
	assert.Equal(t, filepath.Join(home, ".shg", "config.yaml"), paths[1])
}
