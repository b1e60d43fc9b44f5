// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulseapp/feedengine/internal/feed"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config fails validation: %v", err)
	}
	if cfg.Mode != ModeStandalone {
		t.Errorf("default mode = %s", cfg.Mode)
	}
	if cfg.Feed.Home.Deployment != "home" || cfg.Feed.Discovery.Deployment != "discovery" {
		t.Errorf("feed presets = %s / %s", cfg.Feed.Home.Deployment, cfg.Feed.Discovery.Deployment)
	}
}

func TestValidateRejects(t *testing.T) {
	mutations := map[string]func(*Config){
		"unknown_mode":         func(c *Config) { c.Mode = "sqlite" },
		"postgres_without_url": func(c *Config) { c.Mode = ModePostgres },
		"standalone_no_dir": func(c *Config) {
			c.Ledger.BadgerDir = ""
		},
		"bad_port":      func(c *Config) { c.Server.Port = 0 },
		"bad_log_level": func(c *Config) { c.Log.Level = "verbose" },
		"retention_below_cooldown": func(c *Config) {
			c.Ledger.Retention = 2 * time.Hour
		},
		"broken_feed_preset": func(c *Config) {
			c.Feed.Home.DefaultLimit = 0
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid config passed validation")
			}
		})
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	clearPulseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Feed.Home.PrimaryPool != feed.PoolFollowed {
		t.Errorf("home primary pool = %v", cfg.Feed.Home.PrimaryPool)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearPulseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mode: standalone
server:
  port: 9191
log:
  level: debug
feed:
  home:
    ad_interval: 9
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Log.Level)
	}
	if cfg.Feed.Home.AdInterval != 9 {
		t.Errorf("home ad interval = %d, want 9", cfg.Feed.Home.AdInterval)
	}
	// Untouched fields keep their defaults.
	if cfg.Feed.Home.MixInterval != feed.HomeConfig().MixInterval {
		t.Errorf("mix interval = %d, want preset default", cfg.Feed.Home.MixInterval)
	}
	// Pool wiring is code-owned and survives layering.
	if cfg.Feed.Home.PrimaryPool != feed.PoolFollowed || cfg.Feed.Discovery.PrimaryPool != feed.PoolSuggested {
		t.Error("pool wiring lost during load")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	clearPulseEnv(t)
	t.Setenv("PULSE_SERVER_PORT", "7070")
	t.Setenv("PULSE_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %s, want warn", cfg.Log.Level)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearPulseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: [broken"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Error("malformed config file accepted")
	}
}

func TestEnvToKey(t *testing.T) {
	if got := envToKey("PULSE_SERVER_PORT"); got != "server.port" {
		t.Errorf("envToKey = %q", got)
	}
	if got := envToKey("PULSE_MODE"); got != "mode" {
		t.Errorf("envToKey = %q", got)
	}
}

// clearPulseEnv unsets PULSE_-prefixed variables leaked from the invoking
// shell so layering tests see only what they set.
func clearPulseEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if key := kv[:i]; len(key) > 6 && key[:6] == "PULSE_" {
					t.Setenv(key, "") // registers restore on cleanup
					os.Unsetenv(key)
				}
				break
			}
		}
	}
}
