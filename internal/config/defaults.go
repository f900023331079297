package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultDatabasePath         = "shg.db"
	DefaultDatabaseBusyTimeout  = 10 * time.Second
	DefaultDatabaseMaxOpenConns = 4

	DefaultCacheAddr      = "localhost:6379"
	DefaultCacheKeyPrefix = "shg:"
	DefaultCacheTTL       = 10 * time.Minute

	DefaultClusters          = 6
	DefaultSeed              = 42
	DefaultRestarts          = 10
	DefaultMaxIterations     = 300
	DefaultUtilThreshold     = 0.5
	DefaultMinCapacity       = 100.0
	DefaultIncomeThreshold   = 7000.0
	DefaultCapacityThreshold = 300.0
	DefaultTopProductsLimit  = 10
	DefaultMaxTeamSize       = 4
	DefaultTeamTopK          = 5

	DefaultAdvisoryEndpoint        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultAdvisoryModel           = "gemini-2.0-flash"
	DefaultAdvisoryMaxRetries      = 5
	DefaultAdvisoryTimeout         = 60 * time.Second
	DefaultAdvisoryMaxOutputTokens = 600
	DefaultAdvisoryTemperature     = 0.2
	DefaultAdvisoryBundleLimit     = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "shg"
)

// defaultValues lists every key with a default so that viper can bind the
// matching SHG_* environment variable even when no config file sets it.
func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"database.path":             DefaultDatabasePath,
		"database.busy_timeout":     DefaultDatabaseBusyTimeout,
		"database.max_open_conns":   DefaultDatabaseMaxOpenConns,
		"database.migrate_on_start": true,

		"cache.enabled":    false,
		"cache.addr":       DefaultCacheAddr,
		"cache.password":   "",
		"cache.db":         0,
		"cache.key_prefix": DefaultCacheKeyPrefix,
		"cache.ttl":        DefaultCacheTTL,

		"analytics.clusters":           DefaultClusters,
		"analytics.seed":               DefaultSeed,
		"analytics.restarts":           DefaultRestarts,
		"analytics.max_iterations":     DefaultMaxIterations,
		"analytics.util_threshold":     DefaultUtilThreshold,
		"analytics.min_capacity":       DefaultMinCapacity,
		"analytics.income_threshold":   DefaultIncomeThreshold,
		"analytics.capacity_threshold": DefaultCapacityThreshold,
		"analytics.top_products_limit": DefaultTopProductsLimit,
		"analytics.max_team_size":      DefaultMaxTeamSize,
		"analytics.team_top_k":         DefaultTeamTopK,

		"advisory.endpoint":          DefaultAdvisoryEndpoint,
		"advisory.model":             DefaultAdvisoryModel,
		"advisory.api_key":           "",
		"advisory.max_retries":       DefaultAdvisoryMaxRetries,
		"advisory.timeout":           DefaultAdvisoryTimeout,
		"advisory.max_output_tokens": DefaultAdvisoryMaxOutputTokens,
		"advisory.temperature":       DefaultAdvisoryTemperature,
		"advisory.bundle_limit":      DefaultAdvisoryBundleLimit,

		"log.level":         DefaultLogLevel,
		"log.format":        DefaultLogFormat,
		"log.enable_caller": false,

		"metrics.enabled":       false,
		"metrics.namespace":     DefaultMetricsNamespace,
		"metrics.textfile_path": "",
	}
}

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set are left unchanged.  Boolean switches are not touched here;
// their defaults come from defaultValues during loading.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}

	// ── Analytics ─────────────────────────────────────────────────────────────
	a := &cfg.Analytics
	if a.Clusters == 0 {
		a.Clusters = DefaultClusters
	}
	if a.Seed == 0 {
		a.Seed = DefaultSeed
	}
	if a.Restarts == 0 {
		a.Restarts = DefaultRestarts
	}
	if a.MaxIterations == 0 {
		a.MaxIterations = DefaultMaxIterations
	}
	if a.UtilThreshold == 0 {
		a.UtilThreshold = DefaultUtilThreshold
	}
	if a.MinCapacity == 0 {
		a.MinCapacity = DefaultMinCapacity
	}
	if a.IncomeThreshold == 0 {
		a.IncomeThreshold = DefaultIncomeThreshold
	}
	if a.CapacityThreshold == 0 {
		a.CapacityThreshold = DefaultCapacityThreshold
	}
	if a.TopProductsLimit == 0 {
		a.TopProductsLimit = DefaultTopProductsLimit
	}
	if a.MaxTeamSize == 0 {
		a.MaxTeamSize = DefaultMaxTeamSize
	}
	if a.TeamTopK == 0 {
		a.TeamTopK = DefaultTeamTopK
	}

	// ── Advisory ──────────────────────────────────────────────────────────────
	if cfg.Advisory.Endpoint == "" {
		cfg.Advisory.Endpoint = DefaultAdvisoryEndpoint
	}
	if cfg.Advisory.Model == "" {
		cfg.Advisory.Model = DefaultAdvisoryModel
	}
	if cfg.Advisory.MaxRetries == 0 {
		cfg.Advisory.MaxRetries = DefaultAdvisoryMaxRetries
	}
	if cfg.Advisory.Timeout == 0 {
		cfg.Advisory.Timeout = DefaultAdvisoryTimeout
	}
	if cfg.Advisory.MaxOutputTokens == 0 {
		cfg.Advisory.MaxOutputTokens = DefaultAdvisoryMaxOutputTokens
	}
	if cfg.Advisory.Temperature == 0 {
		cfg.Advisory.Temperature = DefaultAdvisoryTemperature
	}
	if cfg.Advisory.BundleLimit == 0 {
		cfg.Advisory.BundleLimit = DefaultAdvisoryBundleLimit
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
