package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")

	config, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ":8000", config.Server.Addr)
	assert.Equal(t, BackendCSV, config.Store.Backend)
	assert.Equal(t, ModeRate, config.Stats.Mode)
	assert.Equal(t, 20.0, config.Estimator.BandwidthMinutes)
	assert.Equal(t, 1000, config.Estimator.Resolution)
	assert.Equal(t, 10, config.Stats.RecentLimit)
	assert.Equal(t, 15*time.Second, config.Hub.HeartbeatInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")
	t.Setenv("VFC_ADDR", ":9000")
	t.Setenv("VFC_STATS_MODE", "tally")
	t.Setenv("VFC_ESTIMATOR_BANDWIDTH_MINUTES", "7.5")
	t.Setenv("VFC_HUB_HEARTBEAT_INTERVAL", "3s")
	t.Setenv("VFC_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("VFC_ESTIMATOR_RESOLUTION", "not-a-number")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", config.Server.Addr)
	assert.Equal(t, ModeTally, config.Stats.Mode)
	assert.Equal(t, 7.5, config.Estimator.BandwidthMinutes)
	assert.Equal(t, 3*time.Second, config.Hub.HeartbeatInterval)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, config.Server.AllowedOrigins)
	// Unparseable values keep the baseline.
	assert.Equal(t, 1000, config.Estimator.Resolution)
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vfc.yaml")
	content := `
server:
  addr: ":8100"
store:
  backend: sqlite
  sqlitePath: /tmp/visitors.db
  timezone: UTC
estimator:
  epoch: "2024-06-01 09:00:00"
  bandwidthMinutes: 12
hub:
  heartbeatInterval: 10s
stats:
  mode: tally
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8100", config.Server.Addr)
	assert.Equal(t, BackendSQLite, config.Store.Backend)
	assert.Equal(t, "/tmp/visitors.db", config.Store.SQLitePath)
	assert.Equal(t, 12.0, config.Estimator.BandwidthMinutes)
	assert.Equal(t, 10*time.Second, config.Hub.HeartbeatInterval)
	assert.Equal(t, ModeTally, config.Stats.Mode)
	// Keys absent from the file keep the baseline.
	assert.Equal(t, 1000, config.Estimator.Resolution)
	assert.Equal(t, 5*time.Second, config.Hub.SendTimeout)

	epoch, err := config.Epoch()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), epoch)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vfc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stats:\n  recentLimit: 3\n"), 0o644))
	t.Setenv(ConfigEnvVar, path)

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, config.Stats.RecentLimit)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
