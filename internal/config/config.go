// Package config reads process settings from TDEE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saadjs/tdee-cli/internal/app"
)

const envPrefix = "TDEE"

// Config holds settings that belong to the process rather than the database.
// Display preferences live in the database instead.
type Config struct {
	DBPath string `envconfig:"DB_PATH" default:""`

	EstimatorURL     string        `envconfig:"ESTIMATOR_URL" default:""`
	EstimatorToken   string        `envconfig:"ESTIMATOR_TOKEN" default:""`
	EstimatorTimeout time.Duration `envconfig:"ESTIMATOR_TIMEOUT" default:"10s"`
	EstimatorRPS     float64       `envconfig:"ESTIMATOR_RPS" default:"2"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"LOG_FORMAT" default:""`

	WatchDebounce time.Duration `envconfig:"WATCH_DEBOUNCE" default:"250ms"`
	MetricsAddr   string        `envconfig:"METRICS_ADDR" default:""`
}

// Load parses the environment and resolves defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveDefaults fills the database path and validates the rest.
func (c *Config) ResolveDefaults() error {
	c.DBPath = strings.TrimSpace(c.DBPath)
	if c.DBPath == "" {
		p, err := app.DefaultDBPath()
		if err != nil {
			return err
		}
		c.DBPath = p
	}
	c.EstimatorURL = strings.TrimSpace(c.EstimatorURL)
	if c.EstimatorURL != "" && !strings.HasPrefix(c.EstimatorURL, "http://") && !strings.HasPrefix(c.EstimatorURL, "https://") {
		return fmt.Errorf("unsupported ESTIMATOR_URL %q: must be http or https", c.EstimatorURL)
	}
	if c.EstimatorTimeout <= 0 {
		return fmt.Errorf("ESTIMATOR_TIMEOUT must be > 0")
	}
	if c.EstimatorRPS < 0 {
		return fmt.Errorf("ESTIMATOR_RPS must be >= 0")
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("WATCH_DEBOUNCE must be >= 0")
	}
	return nil
}

// RemoteEstimation reports whether an estimation service is configured.
func (c *Config) RemoteEstimation() bool {
	return c.EstimatorURL != ""
}
