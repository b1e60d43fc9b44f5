// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package ledger

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/metrics"
	"github.com/pulseapp/feedengine/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres is the production exposure ledger. Rows are append-only; the
// engine never updates or deletes them. Retention is an external concern
// (a partition-drop job owned by the platform).
type Postgres struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres constructs the ledger around an existing pool.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// EnsureSchema creates the exposure table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exposure_log (
			user_id   TEXT NOT NULL,
			item_id   TEXT NOT NULL,
			item_type TEXT NOT NULL,
			seen_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS exposure_log_user_type_seen
			ON exposure_log (user_id, item_type, seen_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

// Record appends exposure rows. Duplicate rows are expected under
// at-least-once delivery and are harmless: readers use distinct or
// counting semantics as appropriate.
func (p *Postgres) Record(ctx context.Context, records []models.ExposureRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	q := psql.Insert("exposure_log").Columns("user_id", "item_id", "item_type", "seen_at")
	for _, r := range records {
		q = q.Values(r.UserID, r.ItemID, string(r.ItemType), r.SeenAt)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build exposure insert: %w", err)
	}
	_, err = p.pool.Exec(ctx, sql, args...)
	metrics.ObserveStoreQuery("exposure_insert", start, err)
	if err != nil {
		return fmt.Errorf("insert exposure records: %w", err)
	}
	return nil
}

// SeenIDs returns the distinct item ids the user has seen since the cutoff.
func (p *Postgres) SeenIDs(ctx context.Context, userID string, itemType models.ItemType, since time.Time) ([]string, error) {
	start := time.Now()
	q := psql.Select("DISTINCT item_id").
		From("exposure_log").
		Where(sq.Eq{"user_id": userID, "item_type": string(itemType)}).
		Where(sq.GtOrEq{"seen_at": since})
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen query: %w", err)
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	metrics.ObserveStoreQuery("seen_ids", start, err)
	if err != nil {
		return nil, fmt.Errorf("query seen ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SponsoredImpressions returns impression timestamps per sponsored item
// since the cutoff. Occurrences are preserved: frequency capping counts.
func (p *Postgres) SponsoredImpressions(ctx context.Context, userID string, since time.Time) (map[string][]time.Time, error) {
	start := time.Now()
	q := psql.Select("item_id", "seen_at").
		From("exposure_log").
		Where(sq.Eq{"user_id": userID, "item_type": string(models.ItemTypeSponsored)}).
		Where(sq.GtOrEq{"seen_at": since})
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build impressions query: %w", err)
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	metrics.ObserveStoreQuery("sponsored_impressions", start, err)
	if err != nil {
		return nil, fmt.Errorf("query sponsored impressions: %w", err)
	}
	defer rows.Close()

	impressions := make(map[string][]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		impressions[id] = append(impressions[id], at)
	}
	return impressions, rows.Err()
}
