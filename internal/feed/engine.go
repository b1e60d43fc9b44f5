// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/metrics"
)

// Sentinel errors for caller input validation. These are the only errors
// GetFeed returns in normal operation: everything downstream degrades
// rather than failing.
var (
	// ErrInvalidUserID is returned when the request carries no user id.
	ErrInvalidUserID = errors.New("feed: user id must not be empty")

	// ErrInvalidLimit is returned when the requested page size is
	// negative.
	ErrInvalidLimit = errors.New("feed: limit must not be negative")
)

// Engine assembles feed pages. One engine serves one deployment preset; it
// holds no per-request state and is safe for concurrent use.
type Engine struct {
	config Config
	store  SignalStore
	ledger ExposureLedger
	logger zerolog.Logger
}

// NewEngine validates the config and constructs an engine.
func NewEngine(cfg Config, store SignalStore, ledger ExposureLedger, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("signal store must not be nil")
	}
	if ledger == nil {
		return nil, fmt.Errorf("exposure ledger must not be nil")
	}
	return &Engine{
		config: cfg,
		store:  store,
		ledger: ledger,
		logger: logger.With().
			Str("component", "feed").
			Str("deployment", cfg.Deployment).
			Logger(),
	}, nil
}

// Config returns a copy of the engine's deployment config.
func (e *Engine) Config() Config {
	return e.config
}

// GetFeed assembles one feed page.
//
// The request pipeline is a single synchronous pass: decode cursor, fan out
// signal fetches, assemble and score pools, interleave, encode the new
// cursor. All cross-request state travels in the cursor or the exposure
// ledger; GetFeed itself writes nothing.
func (e *Engine) GetFeed(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Limit < 0 {
		return nil, ErrInvalidLimit
	}

	cfg := e.config.withOverrides(req.Overrides)
	limit := clampLimit(req.Limit, &cfg)
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	logger := e.logger.With().
		Str("request_id", uuid.NewString()).
		Str("user_id", req.UserID).
		Logger()

	cursor, rejected := decodeCursor(req.Cursor)
	if rejected {
		metrics.CursorDecodeFailures.WithLabelValues(cfg.Deployment).Inc()
		logger.Warn().Msg("malformed cursor, starting from beginning of feed")
	}

	sctx := e.buildSignalContext(ctx, &cfg, req.UserID, cursor, now)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pools := e.gatherPools(ctx, &cfg, req.UserID, sctx, cursor, limit, now)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	primaryLen, secondaryLen := len(pools.primary), len(pools.secondary)
	items, hasMore := e.interleave(&cfg, cursor, pools, limit)

	resp := &Response{
		Items:   items,
		HasMore: hasMore,
	}
	if hasMore {
		resp.NextCursor = encodeCursor(cursor)
	}

	metrics.FeedRequestsTotal.WithLabelValues(cfg.Deployment, "ok").Inc()
	metrics.FeedRequestDuration.WithLabelValues(cfg.Deployment).Observe(time.Since(start).Seconds())

	logger.Debug().
		Int("limit", limit).
		Int("primary", primaryLen).
		Int("secondary", secondaryLen).
		Int("emitted", len(items)).
		Bool("has_more", hasMore).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("feed page assembled")

	return resp, nil
}

// clampLimit resolves the effective page size: default when unset, clamped
// to [1, MaxLimit] otherwise.
func clampLimit(limit int, cfg *Config) int {
	if limit == 0 {
		return cfg.DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > cfg.MaxLimit {
		return cfg.MaxLimit
	}
	return limit
}
