// Package config defines service configuration structures and loading.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database file. Empty selects the
	// in-memory trip log and baseline store.
	DBPath string `koanf:"db_path"`

	// MinSamples is the minimum post-filter sample count for a baseline.
	MinSamples int `koanf:"min_samples"`

	// TolerancePercent is the symmetric tolerance band on new baselines.
	TolerancePercent float64 `koanf:"tolerance_percent"`

	// RecencyRamp is the linear weight ramp across the sample window.
	RecencyRamp float64 `koanf:"recency_ramp"`

	// BaselineWindowDays bounds the trip history read for baseline math.
	BaselineWindowDays int `koanf:"baseline_window_days"`

	// TrendWindowDays and ShortTrendWindowDays bound the rollup windows.
	TrendWindowDays      int `koanf:"trend_window_days"`
	ShortTrendWindowDays int `koanf:"short_trend_window_days"`

	// TrendBandPercent is the stable band for trend classification.
	TrendBandPercent float64 `koanf:"trend_band_percent"`

	// StaleAfterDays and MinConfidence define baseline staleness.
	StaleAfterDays int `koanf:"stale_after_days"`
	MinConfidence  int `koanf:"min_confidence"`

	// SeverityMediumPercent and SeverityHighPercent grade deviations.
	SeverityMediumPercent float64 `koanf:"severity_medium_percent"`
	SeverityHighPercent   float64 `koanf:"severity_high_percent"`

	// WorkerCount bounds batch establishment concurrency.
	WorkerCount int `koanf:"worker_count"`

	// ShardCount configures the in-memory baseline store sharding.
	ShardCount int `koanf:"shard_count"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8780",
		DBPath:                "",
		MinSamples:            10,
		TolerancePercent:      15,
		RecencyRamp:           0.2,
		BaselineWindowDays:    90,
		TrendWindowDays:       30,
		ShortTrendWindowDays:  7,
		TrendBandPercent:      5,
		StaleAfterDays:        90,
		MinConfidence:         60,
		SeverityMediumPercent: 15,
		SeverityHighPercent:   25,
		WorkerCount:           runtime.NumCPU(),
		ShardCount:            8,
	}
}
