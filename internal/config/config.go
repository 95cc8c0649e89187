package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tidewatch/beach-report/internal/station"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Stations StationsConfig `toml:"stations"` // Beach station registry settings
	Upstream UpstreamConfig `toml:"upstream"` // NOAA/NWS upstream API settings
	Cache    CacheConfig    `toml:"cache"`    // Conditions caching settings
	Storage  StorageConfig  `toml:"storage"`  // Snapshot history persistence settings
	Refresh  RefreshConfig  `toml:"refresh"`  // Background refresh settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // Primary HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts  []int  `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StationsConfig contains the beach station registry configuration.
// The built-in registry covers the default beaches; Extra entries are
// appended to it, and Tracked selects which location IDs the background
// refresh keeps warm (empty = all registered locations).
type StationsConfig struct {
	Tracked []string          `toml:"tracked"` // Location IDs refreshed in the background (empty = all)
	Extra   []station.Station `toml:"extra"`   // Additional stations beyond the built-in registry
}

// UpstreamConfig contains the NOAA tides and NWS forecast API settings
type UpstreamConfig struct {
	TidesBaseURL          string `toml:"tides_base_url"`          // Base URL for the NOAA CO-OPS data API
	NWSPointsBaseURL      string `toml:"nws_points_base_url"`     // Base URL for the NWS points API
	UserAgent             string `toml:"user_agent"`              // User-Agent header sent to the NWS API (required by weather.gov)
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"` // HTTP request timeout in seconds
}

// CacheConfig contains conditions caching configuration
type CacheConfig struct {
	FreshnessMinutes int `toml:"freshness_minutes"` // How long a cached snapshot stays fresh before refetching
}

// StorageConfig contains snapshot history persistence configuration
type StorageConfig struct {
	Type          string `toml:"type"`           // Storage backend type (currently only "sqlite" is supported)
	SQLitePath    string `toml:"sqlite_path"`    // Path to the SQLite database file
	HistoryLimit  int    `toml:"history_limit"`  // Maximum number of history rows returned by the API
	RecordHistory bool   `toml:"record_history"` // Whether to persist refreshed snapshots
}

// RefreshConfig contains background refresh configuration
type RefreshConfig struct {
	Enabled         bool `toml:"enabled"`          // Enable or disable the background refresh loop
	IntervalMinutes int  `toml:"interval_minutes"` // How often tracked locations are refreshed
}

// Load reads the configuration from the given TOML file
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and applies defaults for
// unset optional fields
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// Validate AdditionalPorts
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if err := c.validateUpstream(); err != nil {
		return err
	}

	// Validate cache config
	if c.Cache.FreshnessMinutes <= 0 {
		c.Cache.FreshnessMinutes = 5
	}

	// Validate storage config
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "beach-report.db"
	}
	if c.Storage.HistoryLimit <= 0 {
		c.Storage.HistoryLimit = 50
	}

	// Validate refresh config
	if c.Refresh.Enabled && c.Refresh.IntervalMinutes <= 0 {
		return fmt.Errorf("refresh interval_minutes must be greater than 0: %d", c.Refresh.IntervalMinutes)
	}

	return nil
}

func (c *Config) validateUpstream() error {
	if c.Upstream.TidesBaseURL == "" {
		c.Upstream.TidesBaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	}
	if c.Upstream.NWSPointsBaseURL == "" {
		c.Upstream.NWSPointsBaseURL = "https://api.weather.gov/points"
	}
	if c.Upstream.UserAgent == "" {
		return fmt.Errorf("upstream user_agent cannot be empty (required by api.weather.gov)")
	}
	if c.Upstream.RequestTimeoutSeconds <= 0 {
		c.Upstream.RequestTimeoutSeconds = 10
	}
	return nil
}

// RequestTimeout returns the upstream HTTP timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Upstream.RequestTimeoutSeconds) * time.Second
}

// CacheWindow returns the snapshot freshness window as a duration
func (c *Config) CacheWindow() time.Duration {
	return time.Duration(c.Cache.FreshnessMinutes) * time.Minute
}

// RefreshInterval returns the background refresh interval as a duration
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalMinutes) * time.Minute
}
