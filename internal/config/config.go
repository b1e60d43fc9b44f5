// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package config loads and validates application configuration.
//
// Configuration is layered: struct defaults first, then an optional YAML
// file, then PULSE_-prefixed environment variables. Feed deployment
// presets come from the feed package and can be tuned per field from the
// same layers.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pulseapp/feedengine/internal/feed"
	"github.com/pulseapp/feedengine/internal/store"
)

// Mode selects the storage backing.
type Mode string

const (
	// ModePostgres backs signals and the ledger with Postgres.
	ModePostgres Mode = "postgres"
	// ModeStandalone runs with in-memory signals and a Badger ledger,
	// for development and single-node deployments.
	ModeStandalone Mode = "standalone"
)

// Config is the root application configuration.
type Config struct {
	Mode Mode `koanf:"mode" validate:"required,oneof=postgres standalone"`

	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Feed     FeedConfig     `koanf:"feed"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`

	// RateLimit is requests per minute per client IP. Zero disables.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`

	// CORSOrigins lists allowed origins. Empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the Postgres pool (postgres mode only).
type DatabaseConfig struct {
	URL          string        `koanf:"url"`
	MaxConns     int32         `koanf:"max_conns" validate:"min=0"`
	ConnLifetime time.Duration `koanf:"conn_lifetime"`

	Store store.PostgresConfig `koanf:"store"`
}

// LedgerConfig configures the exposure ledger.
type LedgerConfig struct {
	// BadgerDir is the data directory in standalone mode.
	BadgerDir string `koanf:"badger_dir"`

	// Retention must cover the longest cooldown and frequency-cap
	// window in use.
	Retention time.Duration `koanf:"retention" validate:"min=1h"`
}

// FeedConfig carries the per-deployment engine configs. Defaults are the
// feed package presets; individual fields can be overridden from file or
// environment.
type FeedConfig struct {
	Home      feed.Config `koanf:"home"`
	Discovery feed.Config `koanf:"discovery"`
}

// Default returns the configuration defaults applied before file and
// environment layers.
func Default() *Config {
	return &Config{
		Mode: ModeStandalone,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			MaxConns:     8,
			ConnLifetime: 30 * time.Minute,
			Store:        store.DefaultPostgresConfig(),
		},
		Ledger: LedgerConfig{
			BadgerDir: "data/ledger",
			Retention: 31 * 24 * time.Hour,
		},
		Feed: FeedConfig{
			Home:      feed.HomeConfig(),
			Discovery: feed.DiscoveryConfig(),
		},
	}
}

// Validate checks the configuration. Struct tags cover field-level rules;
// the feed configs carry their own cross-field validation.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Mode == ModePostgres && c.Database.URL == "" {
		return fmt.Errorf("database.url is required in postgres mode")
	}
	if c.Mode == ModeStandalone && c.Ledger.BadgerDir == "" {
		return fmt.Errorf("ledger.badger_dir is required in standalone mode")
	}
	if err := c.Feed.Home.Validate(); err != nil {
		return fmt.Errorf("feed.home: %w", err)
	}
	if err := c.Feed.Discovery.Validate(); err != nil {
		return fmt.Errorf("feed.discovery: %w", err)
	}
	if longest := longestWindow(&c.Feed); c.Ledger.Retention < longest {
		return fmt.Errorf("ledger.retention %s is shorter than the longest cooldown window %s", c.Ledger.Retention, longest)
	}
	return nil
}

func longestWindow(fc *FeedConfig) time.Duration {
	longest := fc.Home.SeenCooldown
	if fc.Discovery.SeenCooldown > longest {
		longest = fc.Discovery.SeenCooldown
	}
	return longest
}
