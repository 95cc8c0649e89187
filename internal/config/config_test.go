package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

const minimalConfig = `
[server]
host = "127.0.0.1"
port = 8080

[logging]
level = "info"
format = "console"

[upstream]
user_agent = "beach-report-test/1.0 (test@example.com)"
`

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Defaults applied by Validate
	assert.Equal(t, "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter", cfg.Upstream.TidesBaseURL)
	assert.Equal(t, "https://api.weather.gov/points", cfg.Upstream.NWSPointsBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CacheWindow())
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "beach-report.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 50, cfg.Storage.HistoryLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	assert.Error(t, err)
}

func TestLoad_ExtraStations(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[[stations.extra]]
id = "11"
name = "Jacksonville Beach"
tide_station_id = "8720218"
latitude = 30.2875
longitude = -81.3897
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Stations.Extra, 1)
	assert.Equal(t, "11", cfg.Stations.Extra[0].ID)
	assert.Equal(t, "8720218", cfg.Stations.Extra[0].TideStationID)
}

func TestValidate_InvalidPort(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 0

[upstream]
user_agent = "x"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidate_DuplicateAdditionalPort(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8080
additional_ports = [8081, 8080]

[upstream]
user_agent = "x"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingUserAgent(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8080
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_agent")
}

func TestValidate_RefreshIntervalRequiredWhenEnabled(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[refresh]
enabled = true
interval_minutes = 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnsupportedStorageType(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[storage]
type = "postgres"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoadWithFallback_PrefersExplicitPath(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadWithFallback_NoConfigAnywhere(t *testing.T) {
	// Run from a temp dir so the cwd fallback paths do not resolve.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(cwd)

	_, err = LoadWithFallback("")
	assert.Error(t, err)
}
