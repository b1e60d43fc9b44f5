// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pulseapp/feedengine/internal/cache"
	"github.com/pulseapp/feedengine/internal/metrics"
	"github.com/pulseapp/feedengine/internal/models"
)

// psql builds queries with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresConfig configures the Postgres signal store.
type PostgresConfig struct {
	// SignalCacheSize and SignalCacheTTL size the per-user cache in
	// front of the interest and relationship queries.
	SignalCacheSize int
	SignalCacheTTL  time.Duration

	// BreakerFailureThreshold is the consecutive-failure count that
	// opens the circuit. While open, every query degrades immediately
	// and the engine serves from whatever signals remain.
	BreakerFailureThreshold uint32

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultPostgresConfig returns production defaults.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		SignalCacheSize:         8192,
		SignalCacheTTL:          30 * time.Second,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          15 * time.Second,
	}
}

// cachedSignals holds the per-user signals worth caching between
// consecutive pages of one browsing session.
type cachedSignals struct {
	interests    map[string]float64
	interactions map[string]int
}

// Postgres implements feed.SignalStore over a pgx connection pool.
//
// Every query runs through one shared circuit breaker: a database that has
// started failing trips the breaker and subsequent requests degrade to
// empty signals without waiting on timeouts.
type Postgres struct {
	pool    *pgxpool.Pool
	breaker *gobreaker.CircuitBreaker[any]
	signals *cache.LRU[cachedSignals]
	logger  zerolog.Logger
}

// NewPostgres constructs the store around an existing pool.
func NewPostgres(pool *pgxpool.Pool, cfg PostgresConfig, logger zerolog.Logger) *Postgres {
	settings := gobreaker.Settings{
		Name:    "signal-store",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	}
	return &Postgres{
		pool:    pool,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		signals: cache.NewLRU[cachedSignals](cfg.SignalCacheSize, cfg.SignalCacheTTL),
		logger:  logger.With().Str("component", "store").Logger(),
	}
}

// query runs fn through the circuit breaker and records metrics.
func query[T any](ctx context.Context, p *Postgres, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := p.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	metrics.ObserveStoreQuery(name, start, err)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	out, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected result type %T", name, result)
	}
	return out, nil
}

// FollowingIDs returns the authors the user follows.
func (p *Postgres) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return query(ctx, p, "following_ids", func(ctx context.Context) ([]string, error) {
		q := psql.Select("followee_id").From("follows").Where(sq.Eq{"follower_id": userID})
		return p.selectStrings(ctx, q)
	})
}

// BlockedIDs returns the union of both block directions: a block hides
// content either way.
func (p *Postgres) BlockedIDs(ctx context.Context, userID string) ([]string, error) {
	return query(ctx, p, "blocked_ids", func(ctx context.Context) ([]string, error) {
		sql := `SELECT blocked_id FROM blocks WHERE blocker_id = $1
		        UNION SELECT blocker_id FROM blocks WHERE blocked_id = $1`
		rows, err := p.pool.Query(ctx, sql, userID)
		if err != nil {
			return nil, err
		}
		return scanStrings(rows)
	})
}

// InterestWeights returns the user's learned tag weights, cached briefly.
func (p *Postgres) InterestWeights(ctx context.Context, userID string) (map[string]float64, error) {
	if cached, ok := p.signals.Get("interests:" + userID); ok {
		metrics.SignalCacheHits.Inc()
		return cached.interests, nil
	}
	metrics.SignalCacheMisses.Inc()

	return query(ctx, p, "interest_weights", func(ctx context.Context) (map[string]float64, error) {
		q := psql.Select("tag", "weight").From("user_interests").Where(sq.Eq{"user_id": userID})
		sql, args, err := q.ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := p.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		weights := make(map[string]float64)
		for rows.Next() {
			var tag string
			var weight float64
			if err := rows.Scan(&tag, &weight); err != nil {
				return nil, err
			}
			weights[tag] = weight
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		p.signals.Add("interests:"+userID, cachedSignals{interests: weights})
		return weights, nil
	})
}

// LocationBucket returns the user's geographic bucket.
func (p *Postgres) LocationBucket(ctx context.Context, userID string) (string, error) {
	return query(ctx, p, "location_bucket", func(ctx context.Context) (string, error) {
		q := psql.Select("bucket").From("user_locations").Where(sq.Eq{"user_id": userID})
		sql, args, err := q.ToSql()
		if err != nil {
			return "", err
		}
		var bucket string
		err = p.pool.QueryRow(ctx, sql, args...).Scan(&bucket)
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return bucket, err
	})
}

// RelationshipStrength returns interaction counts for the given authors,
// cached briefly per user.
func (p *Postgres) RelationshipStrength(ctx context.Context, userID string, authorIDs []string) (map[string]int, error) {
	if cached, ok := p.signals.Get("interactions:" + userID); ok {
		metrics.SignalCacheHits.Inc()
		return cached.interactions, nil
	}
	metrics.SignalCacheMisses.Inc()

	return query(ctx, p, "relationship_strength", func(ctx context.Context) (map[string]int, error) {
		q := psql.Select("author_id", "interaction_count").
			From("author_interactions").
			Where(sq.Eq{"user_id": userID, "author_id": authorIDs})
		sql, args, err := q.ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := p.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		counts := make(map[string]int, len(authorIDs))
		for rows.Next() {
			var authorID string
			var count int
			if err := rows.Scan(&authorID, &count); err != nil {
				return nil, err
			}
			counts[authorID] = count
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		p.signals.Add("interactions:"+userID, cachedSignals{interactions: counts})
		return counts, nil
	})
}

// FollowedPosts returns recent content by the given authors. Ordering is a
// plain recency sort; the scoring model imposes the final order.
func (p *Postgres) FollowedPosts(ctx context.Context, authorIDs []string, limit int) ([]models.Candidate, error) {
	return query(ctx, p, "followed_posts", func(ctx context.Context) ([]models.Candidate, error) {
		q := candidateSelect().
			Where(sq.Eq{"author_id": authorIDs}).
			OrderBy("created_at DESC").
			Limit(uint64(limit))
		return p.selectCandidates(ctx, q)
	})
}

// SuggestedPosts returns engagement-ranked content from authors outside
// the exclusion set.
func (p *Postgres) SuggestedPosts(ctx context.Context, _ string, excludeAuthors map[string]struct{}, offset, limit int) ([]models.Candidate, error) {
	return query(ctx, p, "suggested_posts", func(ctx context.Context) ([]models.Candidate, error) {
		q := candidateSelect().
			Where(sq.NotEq{"author_id": setToSlice(excludeAuthors)}).
			OrderBy("likes + 2*comments DESC", "created_at DESC").
			Offset(uint64(offset)).
			Limit(uint64(limit))
		return p.selectCandidates(ctx, q)
	})
}

// NearbyPosts returns content whose author sits in the given bucket.
func (p *Postgres) NearbyPosts(ctx context.Context, bucket string, excludeAuthors map[string]struct{}, limit int) ([]models.Candidate, error) {
	return query(ctx, p, "nearby_posts", func(ctx context.Context) ([]models.Candidate, error) {
		q := candidateSelect().
			Join("user_locations ul ON ul.user_id = content_items.author_id").
			Where(sq.Eq{"ul.bucket": bucket}).
			Where(sq.NotEq{"content_items.author_id": setToSlice(excludeAuthors)}).
			OrderBy("created_at DESC").
			Limit(uint64(limit))
		return p.selectCandidates(ctx, q)
	})
}

// EligibleSponsoredItems returns sponsored items whose flight window
// contains now.
func (p *Postgres) EligibleSponsoredItems(ctx context.Context, now time.Time, limit int) ([]models.SponsoredItem, error) {
	return query(ctx, p, "eligible_sponsored", func(ctx context.Context) ([]models.SponsoredItem, error) {
		q := psql.Select(
			"id", "created_at", "tags", "likes", "comments", "saves",
			"max_impressions_per_user", "frequency_cap_hours",
			"start_date", "end_date", "daily_budget", "priority",
		).
			From("sponsored_items").
			Where(sq.Or{sq.Eq{"start_date": nil}, sq.LtOrEq{"start_date": now}}).
			Where(sq.Or{sq.Eq{"end_date": nil}, sq.GtOrEq{"end_date": now}}).
			OrderBy("priority DESC", "daily_budget DESC", "id ASC").
			Limit(uint64(limit))
		sql, args, err := q.ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := p.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var items []models.SponsoredItem
		for rows.Next() {
			var item models.SponsoredItem
			item.Type = models.ItemTypeSponsored
			var createdAt *time.Time
			if err := rows.Scan(
				&item.ID, &createdAt, &item.Tags,
				&item.Engagement.Likes, &item.Engagement.Comments, &item.Engagement.Saves,
				&item.MaxImpressionsPerUser, &item.FrequencyCapHours,
				&item.StartDate, &item.EndDate, &item.DailyBudget, &item.Priority,
			); err != nil {
				return nil, err
			}
			if createdAt != nil {
				item.CreatedAt = *createdAt
			}
			items = append(items, item)
		}
		return items, rows.Err()
	})
}

// AccountSuggestions returns popular profiles outside the exclusion set.
func (p *Postgres) AccountSuggestions(ctx context.Context, _ string, exclude map[string]struct{}, limit int) ([]models.Profile, error) {
	return query(ctx, p, "account_suggestions", func(ctx context.Context) ([]models.Profile, error) {
		q := psql.Select("id", "username", "display_name", "avatar_url", "bio", "follower_count").
			From("profiles").
			Where(sq.NotEq{"id": setToSlice(exclude)}).
			OrderBy("follower_count DESC", "id ASC").
			Limit(uint64(limit))
		sql, args, err := q.ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := p.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var profiles []models.Profile
		for rows.Next() {
			var profile models.Profile
			if err := rows.Scan(
				&profile.ID, &profile.Username, &profile.DisplayName,
				&profile.AvatarURL, &profile.Bio, &profile.FollowerCount,
			); err != nil {
				return nil, err
			}
			profiles = append(profiles, profile)
		}
		return profiles, rows.Err()
	})
}

// candidateSelect is the shared projection over content_items.
func candidateSelect() sq.SelectBuilder {
	return psql.Select(
		"content_items.id", "content_items.author_id", "content_items.created_at",
		"content_items.tags", "content_items.likes", "content_items.comments", "content_items.saves",
	).From("content_items")
}

// selectCandidates runs a candidate query and scans the rows.
func (p *Postgres) selectCandidates(ctx context.Context, q sq.SelectBuilder) ([]models.Candidate, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		c.Type = models.ItemTypeContent
		if err := rows.Scan(
			&c.ID, &c.AuthorID, &c.CreatedAt,
			&c.Tags, &c.Engagement.Likes, &c.Engagement.Comments, &c.Engagement.Saves,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// selectStrings runs a single-column query and scans the rows.
func (p *Postgres) selectStrings(ctx context.Context, q sq.SelectBuilder) ([]string, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// scanStrings drains a single-column string result set.
func scanStrings(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// setToSlice returns the set's keys in deterministic order for stable
// query text and reproducible plans.
func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
