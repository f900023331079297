// Package config defines the configuration structures for the SHG Insights
// engine.  No I/O lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DatabaseConfig locates the SQLite file that holds all SHG records.
type DatabaseConfig struct {
	Path           string        `mapstructure:"path"`
	BusyTimeout    time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MigrateOnStart bool          `mapstructure:"migrate_on_start"`
}

// CacheConfig controls the optional Redis result cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// AnalyticsConfig carries the tunables of the analytics engine.  The defaults
// reproduce the documented rubric thresholds.
type AnalyticsConfig struct {
	Clusters          int     `mapstructure:"clusters"`
	Seed              int64   `mapstructure:"seed"`
	Restarts          int     `mapstructure:"restarts"`
	MaxIterations     int     `mapstructure:"max_iterations"`
	UtilThreshold     float64 `mapstructure:"util_threshold"`
	MinCapacity       float64 `mapstructure:"min_capacity"`
	IncomeThreshold   float64 `mapstructure:"income_threshold"`
	CapacityThreshold float64 `mapstructure:"capacity_threshold"`
	TopProductsLimit  int     `mapstructure:"top_products_limit"`
	MaxTeamSize       int     `mapstructure:"max_team_size"`
	TeamTopK          int     `mapstructure:"team_top_k"`
}

// AdvisoryConfig configures the generative advisory endpoint.
type AdvisoryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	BundleLimit     int           `mapstructure:"bundle_limit"`
}

// LogConfig mirrors logging.LogConfig so that this package stays free of
// infrastructure imports.
type LogConfig struct {
	Level        string   `mapstructure:"level"`
	Format       string   `mapstructure:"format"`
	OutputPaths  []string `mapstructure:"output_paths"`
	EnableCaller bool     `mapstructure:"enable_caller"`
}

// MetricsConfig controls Prometheus metric collection.  Metrics are written to
// a node-exporter textfile when TextfilePath is set.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Namespace    string `mapstructure:"namespace"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Advisory  AdvisoryConfig  `mapstructure:"advisory"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Database
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("config: database.busy_timeout must be ≥ 0, got %s", c.Database.BusyTimeout)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("config: database.max_open_conns must be ≥ 1, got %d", c.Database.MaxOpenConns)
	}

	// Cache
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("config: cache.addr is required when the cache is enabled")
	}
	if c.Cache.DB < 0 {
		return fmt.Errorf("config: cache.db must be ≥ 0, got %d", c.Cache.DB)
	}

	// Analytics
	a := c.Analytics
	if a.Clusters < 1 {
		return fmt.Errorf("config: analytics.clusters must be ≥ 1, got %d", a.Clusters)
	}
	if a.Restarts < 1 {
		return fmt.Errorf("config: analytics.restarts must be ≥ 1, got %d", a.Restarts)
	}
	if a.MaxIterations < 1 {
		return fmt.Errorf("config: analytics.max_iterations must be ≥ 1, got %d", a.MaxIterations)
	}
	if a.UtilThreshold < 0 || a.MinCapacity < 0 || a.IncomeThreshold < 0 || a.CapacityThreshold < 0 {
		return fmt.Errorf("config: analytics thresholds must not be negative")
	}
	if a.MaxTeamSize < 1 || a.MaxTeamSize > 4 {
		return fmt.Errorf("config: analytics.max_team_size %d is out of range [1, 4]", a.MaxTeamSize)
	}
	if a.TeamTopK < 1 {
		return fmt.Errorf("config: analytics.team_top_k must be ≥ 1, got %d", a.TeamTopK)
	}
	if a.TopProductsLimit < 1 {
		return fmt.Errorf("config: analytics.top_products_limit must be ≥ 1, got %d", a.TopProductsLimit)
	}

	// Advisory
	if c.Advisory.MaxRetries < 1 {
		return fmt.Errorf("config: advisory.max_retries must be ≥ 1, got %d", c.Advisory.MaxRetries)
	}
	if c.Advisory.Temperature < 0 || c.Advisory.Temperature > 2 {
		return fmt.Errorf("config: advisory.temperature %.2f is out of range [0, 2]", c.Advisory.Temperature)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	return nil
}
