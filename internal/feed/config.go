// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"fmt"
	"time"
)

// ScoreWeights defines the contribution of each scoring primitive to the
// final score of a pool. Weights are deployment constants, not user input,
// and are not normalized: the final score is the plain weighted sum.
type ScoreWeights struct {
	// Recency weights the linear time-decay primitive.
	Recency float64 `json:"recency" koanf:"recency"`

	// Engagement weights the log-engagement primitive (flat or velocity
	// form, selected by pool).
	Engagement float64 `json:"engagement" koanf:"engagement"`

	// Affinity weights the third primitive: relationship strength for
	// the followed pool, interest-tag match for discovery pools.
	Affinity float64 `json:"affinity" koanf:"affinity"`
}

// PoolWeights holds per-pool scoring weights.
type PoolWeights struct {
	Followed  ScoreWeights `json:"followed" koanf:"followed"`
	Suggested ScoreWeights `json:"suggested" koanf:"suggested"`
	Nearby    ScoreWeights `json:"nearby" koanf:"nearby"`
}

// RecencyWindows holds per-pool maximum candidate ages in hours. Candidates
// older than the window are excluded from ranking entirely.
type RecencyWindows struct {
	Followed  float64 `json:"followed" koanf:"followed"`
	Suggested float64 `json:"suggested" koanf:"suggested"`
	Nearby    float64 `json:"nearby" koanf:"nearby"`
}

// AccountSuggestionConfig controls placement of account-suggestion cards.
type AccountSuggestionConfig struct {
	// StartIndex is the absolute position (counted across the whole
	// session, resumed from the cursor) at which cards become eligible.
	StartIndex int `json:"start_index" koanf:"start_index"`

	// Interval is the spacing between eligible card positions.
	Interval int `json:"interval" koanf:"interval"`

	// MaxPerPage caps cards emitted on one page.
	MaxPerPage int `json:"max_per_page" koanf:"max_per_page"`
}

// Config parameterizes one feed deployment. One engine implementation
// serves every deployment; only the Config differs.
type Config struct {
	// Deployment names the surface, used in logs and metrics.
	Deployment string `json:"deployment" koanf:"deployment"`

	// PrimaryPool and SecondaryPool select the content pools the
	// interleaver consumes. SecondaryPool may equal PrimaryPool to
	// disable mixing.
	PrimaryPool   Pool `json:"-" koanf:"-"`
	SecondaryPool Pool `json:"-" koanf:"-"`

	// DefaultLimit is the page size when the request does not set one.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit clamps the requested page size.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// AdInterval is the number of organic items between sponsored slots.
	// Zero disables sponsored insertion.
	AdInterval int `json:"ad_interval" koanf:"ad_interval"`

	// MixInterval is the number of primary-pool items between secondary
	// pool insertions. Zero disables mixing.
	MixInterval int `json:"mix_interval" koanf:"mix_interval"`

	// SeenCooldown is how long a shown item stays ineligible.
	SeenCooldown time.Duration `json:"seen_cooldown" koanf:"seen_cooldown"`

	// OverfetchFactor multiplies the page size when fetching raw pools so
	// that downstream filtering does not force a refetch.
	OverfetchFactor int `json:"overfetch_factor" koanf:"overfetch_factor"`

	// RecencyMaxHours bounds candidate age per pool.
	RecencyMaxHours RecencyWindows `json:"recency_max_hours" koanf:"recency_max_hours"`

	// Weights holds per-pool scoring weights.
	Weights PoolWeights `json:"weights" koanf:"weights"`

	// NearbyBoost is added flat to candidates drawn from the nearby pool.
	NearbyBoost float64 `json:"nearby_boost" koanf:"nearby_boost"`

	// AccountSuggestions controls follow-card placement.
	AccountSuggestions AccountSuggestionConfig `json:"account_suggestions" koanf:"account_suggestions"`

	// CursorSeenCap bounds the per-type seen-id sets carried in the
	// cursor. Oldest ids are evicted first; the cooldown ledger covers
	// ids that age out of the cursor.
	CursorSeenCap int `json:"cursor_seen_cap" koanf:"cursor_seen_cap"`

	// CarryOffset enables the raw offset counter in the cursor, used by
	// deployments whose suggested-pool fetch is offset-paged.
	CarryOffset bool `json:"carry_offset" koanf:"carry_offset"`

	// RecordAccountCards includes account-suggestion cards in exposure
	// records. Content and sponsored items are always recorded.
	RecordAccountCards bool `json:"record_account_cards" koanf:"record_account_cards"`
}

// HomeConfig returns the preset for the home feed: followed content primary,
// suggested content mixed in, velocity engagement scoring.
func HomeConfig() Config {
	return Config{
		Deployment:      "home",
		PrimaryPool:     PoolFollowed,
		SecondaryPool:   PoolSuggested,
		DefaultLimit:    20,
		MaxLimit:        50,
		AdInterval:      6,
		MixInterval:     4,
		SeenCooldown:    72 * time.Hour,
		OverfetchFactor: 3,
		RecencyMaxHours: RecencyWindows{
			Followed:  168, // one week
			Suggested: 72,
			Nearby:    72,
		},
		Weights: PoolWeights{
			Followed:  ScoreWeights{Recency: 0.5, Engagement: 0.3, Affinity: 0.2},
			Suggested: ScoreWeights{Recency: 0.3, Engagement: 0.4, Affinity: 0.3},
			Nearby:    ScoreWeights{Recency: 0.3, Engagement: 0.4, Affinity: 0.3},
		},
		NearbyBoost: 0.15,
		AccountSuggestions: AccountSuggestionConfig{
			StartIndex: 10,
			Interval:   15,
			MaxPerPage: 2,
		},
		CursorSeenCap: 500,
	}
}

// DiscoveryConfig returns the preset for the discovery feed: suggested
// content primary, nearby content secondary, flat log-engagement scoring,
// raw offset carried in the cursor.
func DiscoveryConfig() Config {
	cfg := HomeConfig()
	cfg.Deployment = "discovery"
	cfg.PrimaryPool = PoolSuggested
	cfg.SecondaryPool = PoolNearby
	cfg.AdInterval = 8
	cfg.MixInterval = 3
	cfg.SeenCooldown = 48 * time.Hour
	cfg.OverfetchFactor = 4
	cfg.CarryOffset = true
	cfg.AccountSuggestions = AccountSuggestionConfig{
		StartIndex: 6,
		Interval:   12,
		MaxPerPage: 3,
	}
	return cfg
}

// Validate checks cross-field consistency. Called once at engine
// construction; per-request overrides are validated separately.
func (c *Config) Validate() error {
	if c.Deployment == "" {
		return fmt.Errorf("deployment name must not be empty")
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit %d must be >= default_limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.AdInterval < 0 {
		return fmt.Errorf("ad_interval must not be negative, got %d", c.AdInterval)
	}
	if c.MixInterval < 0 {
		return fmt.Errorf("mix_interval must not be negative, got %d", c.MixInterval)
	}
	if c.SeenCooldown <= 0 {
		return fmt.Errorf("seen_cooldown must be positive, got %s", c.SeenCooldown)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be >= 1, got %d", c.OverfetchFactor)
	}
	if c.RecencyMaxHours.Followed <= 0 || c.RecencyMaxHours.Suggested <= 0 || c.RecencyMaxHours.Nearby <= 0 {
		return fmt.Errorf("recency windows must be positive")
	}
	if c.AccountSuggestions.Interval <= 0 {
		return fmt.Errorf("account_suggestions.interval must be positive, got %d", c.AccountSuggestions.Interval)
	}
	if c.AccountSuggestions.StartIndex < 0 {
		return fmt.Errorf("account_suggestions.start_index must not be negative, got %d", c.AccountSuggestions.StartIndex)
	}
	if c.AccountSuggestions.MaxPerPage < 0 {
		return fmt.Errorf("account_suggestions.max_per_page must not be negative, got %d", c.AccountSuggestions.MaxPerPage)
	}
	if c.CursorSeenCap <= 0 {
		return fmt.Errorf("cursor_seen_cap must be positive, got %d", c.CursorSeenCap)
	}
	switch c.PrimaryPool {
	case PoolFollowed, PoolSuggested, PoolNearby:
	default:
		return fmt.Errorf("primary pool %s is not a content pool", c.PrimaryPool)
	}
	switch c.SecondaryPool {
	case PoolFollowed, PoolSuggested, PoolNearby:
	default:
		return fmt.Errorf("secondary pool %s is not a content pool", c.SecondaryPool)
	}
	return nil
}

// Overrides adjusts a restricted set of safe tunables for one request.
// Nil fields leave the deployment value in place.
type Overrides struct {
	AdInterval  *int
	MixInterval *int
	NearbyBoost *float64
	Weights     *PoolWeights
}

// withOverrides returns a copy of c with o applied. The receiver is never
// mutated: the engine's config is shared across requests.
func (c Config) withOverrides(o *Overrides) Config {
	if o == nil {
		return c
	}
	if o.AdInterval != nil && *o.AdInterval >= 0 {
		c.AdInterval = *o.AdInterval
	}
	if o.MixInterval != nil && *o.MixInterval >= 0 {
		c.MixInterval = *o.MixInterval
	}
	if o.NearbyBoost != nil {
		c.NearbyBoost = *o.NearbyBoost
	}
	if o.Weights != nil {
		c.Weights = *o.Weights
	}
	return c
}

// recencyWindow returns the recency window for a content pool.
func (c *Config) recencyWindow(p Pool) float64 {
	switch p {
	case PoolFollowed:
		return c.RecencyMaxHours.Followed
	case PoolSuggested:
		return c.RecencyMaxHours.Suggested
	case PoolNearby:
		return c.RecencyMaxHours.Nearby
	default:
		return 0
	}
}

// poolWeights returns the scoring weights for a content pool.
func (c *Config) poolWeights(p Pool) ScoreWeights {
	switch p {
	case PoolFollowed:
		return c.Weights.Followed
	case PoolSuggested:
		return c.Weights.Suggested
	case PoolNearby:
		return c.Weights.Nearby
	default:
		return ScoreWeights{}
	}
}
