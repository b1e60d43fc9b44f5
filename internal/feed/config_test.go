// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import "testing"

func TestPresetConfigsValidate(t *testing.T) {
	for _, cfg := range []Config{HomeConfig(), DiscoveryConfig()} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s preset fails validation: %v", cfg.Deployment, err)
		}
	}
}

func TestConfigValidateRejects(t *testing.T) {
	mutations := map[string]func(*Config){
		"empty_deployment":    func(c *Config) { c.Deployment = "" },
		"zero_default_limit":  func(c *Config) { c.DefaultLimit = 0 },
		"max_below_default":   func(c *Config) { c.MaxLimit = c.DefaultLimit - 1 },
		"negative_ad":         func(c *Config) { c.AdInterval = -1 },
		"negative_mix":        func(c *Config) { c.MixInterval = -1 },
		"zero_cooldown":       func(c *Config) { c.SeenCooldown = 0 },
		"zero_overfetch":      func(c *Config) { c.OverfetchFactor = 0 },
		"zero_recency":        func(c *Config) { c.RecencyMaxHours.Suggested = 0 },
		"zero_card_interval":  func(c *Config) { c.AccountSuggestions.Interval = 0 },
		"negative_card_start": func(c *Config) { c.AccountSuggestions.StartIndex = -1 },
		"zero_seen_cap":       func(c *Config) { c.CursorSeenCap = 0 },
		"sponsored_primary":   func(c *Config) { c.PrimaryPool = PoolSponsored },
		"account_secondary":   func(c *Config) { c.SecondaryPool = PoolAccount },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := HomeConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid config passed validation")
			}
		})
	}
}

func TestWithOverrides(t *testing.T) {
	base := HomeConfig()

	t.Run("nil_leaves_config", func(t *testing.T) {
		got := base.withOverrides(nil)
		if got.AdInterval != base.AdInterval || got.NearbyBoost != base.NearbyBoost {
			t.Errorf("nil overrides changed config: %+v", got)
		}
	})

	t.Run("fields_applied", func(t *testing.T) {
		ad, mix, boost := 2, 7, 0.4
		weights := PoolWeights{Followed: ScoreWeights{Recency: 1}}
		got := base.withOverrides(&Overrides{
			AdInterval:  &ad,
			MixInterval: &mix,
			NearbyBoost: &boost,
			Weights:     &weights,
		})
		if got.AdInterval != 2 || got.MixInterval != 7 || got.NearbyBoost != 0.4 {
			t.Errorf("overrides not applied: %+v", got)
		}
		if got.Weights.Followed.Recency != 1 {
			t.Errorf("weights not applied: %+v", got.Weights)
		}
	})

	t.Run("negative_values_ignored", func(t *testing.T) {
		bad := -3
		got := base.withOverrides(&Overrides{AdInterval: &bad, MixInterval: &bad})
		if got.AdInterval != base.AdInterval || got.MixInterval != base.MixInterval {
			t.Errorf("negative overrides applied: %+v", got)
		}
	})

	t.Run("base_unchanged", func(t *testing.T) {
		zero := 0
		_ = base.withOverrides(&Overrides{AdInterval: &zero})
		if base.AdInterval != HomeConfig().AdInterval {
			t.Error("withOverrides mutated the receiver")
		}
	})
}

func TestContentPools(t *testing.T) {
	cfg := HomeConfig()
	pools := cfg.contentPools()
	if len(pools) != 2 || pools[0] != PoolFollowed || pools[1] != PoolSuggested {
		t.Errorf("contentPools = %v", pools)
	}

	cfg.SecondaryPool = cfg.PrimaryPool
	pools = cfg.contentPools()
	if len(pools) != 1 || pools[0] != PoolFollowed {
		t.Errorf("contentPools with equal pools = %v", pools)
	}
}
