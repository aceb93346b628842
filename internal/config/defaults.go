package config

import "time"

// Default values applied to unset fields.
const (
	DefaultServerPort       = 8080
	DefaultServerMode       = "release"
	DefaultShutdownTimeout  = 15 * time.Second
	DefaultBatchMaxSize     = 50
	DefaultBatchConcurrency = 5
	DefaultCacheTTL         = time.Hour
	DefaultRecentScoresTTL  = time.Minute
	DefaultDailyCallLimit   = 500
	DefaultDailyBudgetUSD   = 25.0
	DefaultMetricsNamespace = "govmatch"
	DefaultMigrationsPath   = "file://migrations"
)

// ApplyDefaults fills unset fields in place.  Infrastructure sub-configs
// that normalize themselves at construction time are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Scoring.BatchMaxSize == 0 {
		cfg.Scoring.BatchMaxSize = DefaultBatchMaxSize
	}
	if cfg.Scoring.BatchConcurrency == 0 {
		cfg.Scoring.BatchConcurrency = DefaultBatchConcurrency
	}
	if cfg.Scoring.CacheTTL == 0 {
		cfg.Scoring.CacheTTL = DefaultCacheTTL
	}
	if cfg.Scoring.RecentScoresTTL == 0 {
		cfg.Scoring.RecentScoresTTL = DefaultRecentScoresTTL
	}

	if cfg.Quota.DailyCallLimit == 0 {
		cfg.Quota.DailyCallLimit = DefaultDailyCallLimit
	}
	if cfg.Quota.DailyBudgetUSD == 0 {
		cfg.Quota.DailyBudgetUSD = DefaultDailyBudgetUSD
	}

	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = DefaultMigrationsPath
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
