package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FUELWATCH_CONFIG is set
//  3. env (prefix FUELWATCH_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FUELWATCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FUELWATCH_ADDR, FUELWATCH_MIN_SAMPLES, ...
	// Keys map flat: FUELWATCH_MIN_SAMPLES -> min_samples, preserving
	// underscores to match the koanf tags on the struct.
	envProvider := env.Provider("FUELWATCH_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "fuelwatch_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MinSamples < 1:
		return fmt.Errorf("%w: min_samples must be positive", ErrInvalidConfig)
	case c.TolerancePercent <= 0:
		return fmt.Errorf("%w: tolerance_percent must be positive", ErrInvalidConfig)
	case c.SeverityHighPercent <= c.SeverityMediumPercent:
		return fmt.Errorf("%w: severity_high_percent must exceed severity_medium_percent", ErrInvalidConfig)
	case c.ShortTrendWindowDays >= c.TrendWindowDays:
		return fmt.Errorf("%w: short_trend_window_days must be below trend_window_days", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	return nil
}
