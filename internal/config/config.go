// Package config declares the environment-driven configuration of the tally
// binary. Zero values mean "use the component default" unless a default tag
// says otherwise.
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/tally/internal/env"
)

// Config holds all configuration for the tally binary.
type Config struct {
	Storage         StorageConfig
	Tracker         TrackerConfig
	HTTP            HTTPConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"TALLY_SHUTDOWN_TIMEOUT" default:"10s"`
}

// TrackerConfig holds session and load-tier configuration.
type TrackerConfig struct {
	// SeedURL replaces the embedded seed resource when set.
	SeedURL       string        `env:"TALLY_SEED_URL"`
	GenerateCount int           `env:"TALLY_GENERATE_COUNT"`
	UndoWindow    time.Duration `env:"TALLY_UNDO_WINDOW"`
}

// Validate validates the tracker configuration.
func (c *TrackerConfig) Validate() error {
	if c.GenerateCount < 0 {
		return fmt.Errorf("TALLY_GENERATE_COUNT must be >= 0, got %d", c.GenerateCount)
	}
	return nil
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"TALLY_HTTP_HOST" default:"127.0.0.1"`
	Port              string        `env:"TALLY_HTTP_PORT"`
	ReadTimeout       time.Duration `env:"TALLY_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"TALLY_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"TALLY_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"TALLY_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"TALLY_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"TALLY_HTTP_MAX_BODY_BYTES"`
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"TALLY_OTEL_ENABLED"`
	ServiceName string `env:"OTEL_SERVICE_NAME" default:"tally"`
}

// Load loads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
