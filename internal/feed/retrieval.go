// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseapp/feedengine/internal/metrics"
	"github.com/pulseapp/feedengine/internal/models"
)

// poolSet holds the filtered, scored, sorted pools the interleaver consumes.
type poolSet struct {
	primary   []ScoredCandidate
	secondary []ScoredCandidate
	sponsored []models.SponsoredItem
	accounts  []models.Profile
}

// remaining reports whether any pool still has unconsumed candidates.
func (p *poolSet) remaining() bool {
	return len(p.primary) > 0 || len(p.secondary) > 0 || len(p.sponsored) > 0 || len(p.accounts) > 0
}

// buildSignalContext fans out the independent signal fetches and joins them
// into one per-request context. Each fetch degrades to empty on failure; a
// missing signal never aborts the page.
func (e *Engine) buildSignalContext(ctx context.Context, cfg *Config, userID string, cursor *cursorState, now time.Time) *SignalContext {
	sctx := newSignalContext()
	cutoff := now.Add(-cfg.SeenCooldown)

	seenTypes := []models.ItemType{models.ItemTypeContent, models.ItemTypeSponsored, models.ItemTypeAccountSuggestion}

	// Each goroutine writes only its own slot; results are joined into
	// the context after Wait.
	var (
		followingIDs []string
		blockedIDs   []string
		interests    map[string]float64
		bucket       string
		impressions  map[string][]time.Time
		seenByType   = make([][]string, len(seenTypes))
		g, gctx      = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		ids, err := e.store.FollowingIDs(gctx, userID)
		if err != nil {
			e.signalDegraded(gctx, "following", err)
			return nil
		}
		followingIDs = ids
		return nil
	})
	g.Go(func() error {
		ids, err := e.store.BlockedIDs(gctx, userID)
		if err != nil {
			e.signalDegraded(gctx, "blocked", err)
			return nil
		}
		blockedIDs = ids
		return nil
	})
	g.Go(func() error {
		weights, err := e.store.InterestWeights(gctx, userID)
		if err != nil {
			e.signalDegraded(gctx, "interests", err)
			return nil
		}
		interests = weights
		return nil
	})
	if cfg.usesPool(PoolNearby) {
		g.Go(func() error {
			b, err := e.store.LocationBucket(gctx, userID)
			if err != nil {
				e.signalDegraded(gctx, "location", err)
				return nil
			}
			bucket = b
			return nil
		})
	}
	for i, itemType := range seenTypes {
		g.Go(func() error {
			ids, err := e.ledger.SeenIDs(gctx, userID, itemType, cutoff)
			if err != nil {
				e.signalDegraded(gctx, "seen_"+string(itemType), err)
				return nil
			}
			seenByType[i] = ids
			return nil
		})
	}
	if cfg.AdInterval > 0 {
		g.Go(func() error {
			since := now.Add(-maxFrequencyCapWindow)
			imps, err := e.ledger.SponsoredImpressions(gctx, userID, since)
			if err != nil {
				e.signalDegraded(gctx, "sponsored_impressions", err)
				return nil
			}
			impressions = imps
			return nil
		})
	}

	// Goroutines swallow fetch errors; only context cancellation can
	// surface here, and the caller observes that through ctx directly.
	_ = g.Wait()

	if interests != nil {
		sctx.InterestWeights = interests
	}
	if impressions != nil {
		sctx.SponsoredImpressions = impressions
	}
	sctx.LocationBucket = bucket
	for i, itemType := range seenTypes {
		for _, id := range seenByType[i] {
			sctx.markSeen(itemType, id)
		}
	}

	// Relationship strength depends on the following set, so it runs
	// after the first join.
	if len(followingIDs) > 0 {
		strength, err := e.store.RelationshipStrength(ctx, userID, followingIDs)
		if err != nil {
			e.signalDegraded(ctx, "relationship", err)
			for _, id := range followingIDs {
				sctx.Following[id] = 0
			}
		} else {
			for _, id := range followingIDs {
				sctx.Following[id] = strength[id]
			}
		}
	}

	sctx.ExcludedAuthors[userID] = struct{}{}
	for _, id := range blockedIDs {
		sctx.ExcludedAuthors[id] = struct{}{}
	}

	// Union the cursor's carried ids into the seen sets. This guards
	// against duplicates across pages within one session even before the
	// cooldown write lands.
	for itemType, ids := range cursor.SeenIDs {
		for _, id := range ids {
			sctx.markSeen(itemType, id)
		}
	}

	return sctx
}

// maxFrequencyCapWindow is the widest frequency-cap window fetched from the
// ledger. Per-item windows are applied against these timestamps during
// filtering, so this only needs to be an upper bound.
const maxFrequencyCapWindow = 30 * 24 * time.Hour

// gatherPools fetches, filters, scores, and sorts every pool the deployment
// uses. Pool fetches are independent and run concurrently.
func (e *Engine) gatherPools(ctx context.Context, cfg *Config, userID string, sctx *SignalContext, cursor *cursorState, limit int, now time.Time) *poolSet {
	fetchLimit := limit * cfg.OverfetchFactor
	pools := &poolSet{}

	contentPools := cfg.contentPools()

	var (
		fetched   = make([][]models.Candidate, len(contentPools))
		sponsored []models.SponsoredItem
		accounts  []models.Profile
		g, gctx   = errgroup.WithContext(ctx)
	)

	for i, pool := range contentPools {
		g.Go(func() error {
			candidates, err := e.fetchContentPool(gctx, cfg, pool, userID, sctx, cursor, fetchLimit)
			if err != nil {
				e.signalDegraded(gctx, "pool_"+pool.String(), err)
				return nil
			}
			fetched[i] = candidates
			return nil
		})
	}
	if cfg.AdInterval > 0 {
		g.Go(func() error {
			items, err := e.store.EligibleSponsoredItems(gctx, now, limit)
			if err != nil {
				e.signalDegraded(gctx, "pool_sponsored", err)
				return nil
			}
			sponsored = items
			return nil
		})
	}
	if cfg.AccountSuggestions.MaxPerPage > 0 {
		g.Go(func() error {
			exclude := accountExclusions(sctx)
			profiles, err := e.store.AccountSuggestions(gctx, userID, exclude, cfg.AccountSuggestions.MaxPerPage*3)
			if err != nil {
				e.signalDegraded(gctx, "pool_accounts", err)
				return nil
			}
			accounts = profiles
			return nil
		})
	}
	_ = g.Wait()

	byPool := make(map[Pool][]models.Candidate, len(contentPools))
	for i, pool := range contentPools {
		byPool[pool] = fetched[i]
	}

	pools.primary = e.scorePool(byPool[cfg.PrimaryPool], cfg.PrimaryPool, sctx, cfg, now)
	if cfg.SecondaryPool != cfg.PrimaryPool {
		pools.secondary = e.scorePool(byPool[cfg.SecondaryPool], cfg.SecondaryPool, sctx, cfg, now)
	}
	pools.sponsored = filterSponsored(sponsored, sctx, now)
	pools.accounts = filterAccounts(accounts, sctx)

	for _, pool := range contentPools {
		metrics.PoolCandidates.WithLabelValues(cfg.Deployment, pool.String()).Observe(float64(len(byPool[pool])))
	}
	return pools
}

// fetchContentPool fetches the raw candidates for one content pool and
// applies the exclusion rules in order: blocked authors, the pool's own
// author exclusions, then previously seen ids.
func (e *Engine) fetchContentPool(ctx context.Context, cfg *Config, pool Pool, userID string, sctx *SignalContext, cursor *cursorState, fetchLimit int) ([]models.Candidate, error) {
	var (
		raw []models.Candidate
		err error
	)
	switch pool {
	case PoolFollowed:
		authorIDs := make([]string, 0, len(sctx.Following))
		for id := range sctx.Following {
			authorIDs = append(authorIDs, id)
		}
		sort.Strings(authorIDs)
		if len(authorIDs) == 0 {
			return nil, nil
		}
		raw, err = e.store.FollowedPosts(ctx, authorIDs, fetchLimit)
	case PoolSuggested:
		exclude := suggestedExclusions(sctx)
		offset := 0
		if cfg.CarryOffset {
			offset = cursor.Offset
		}
		raw, err = e.store.SuggestedPosts(ctx, userID, exclude, offset, fetchLimit)
	case PoolNearby:
		if sctx.LocationBucket == "" {
			return nil, nil
		}
		raw, err = e.store.NearbyPosts(ctx, sctx.LocationBucket, suggestedExclusions(sctx), fetchLimit)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return filterCandidates(raw, pool, sctx), nil
}

// suggestedExclusions is the author exclusion set for discovery pools:
// blocked, self, and already-followed authors.
func suggestedExclusions(sctx *SignalContext) map[string]struct{} {
	exclude := make(map[string]struct{}, len(sctx.ExcludedAuthors)+len(sctx.Following))
	for id := range sctx.ExcludedAuthors {
		exclude[id] = struct{}{}
	}
	for id := range sctx.Following {
		exclude[id] = struct{}{}
	}
	return exclude
}

// accountExclusions is the exclusion set for account-suggestion cards:
// blocked, self, already-followed, and cards already shown.
func accountExclusions(sctx *SignalContext) map[string]struct{} {
	exclude := suggestedExclusions(sctx)
	for id := range sctx.Seen[models.ItemTypeAccountSuggestion] {
		exclude[id] = struct{}{}
	}
	return exclude
}

// filterCandidates applies the exclusion rules to one content pool. The
// store is not trusted to have applied any of them.
func filterCandidates(raw []models.Candidate, pool Pool, sctx *SignalContext) []models.Candidate {
	filtered := raw[:0:0]
	for _, c := range raw {
		if _, blocked := sctx.ExcludedAuthors[c.AuthorID]; blocked {
			continue
		}
		if pool != PoolFollowed {
			if _, followed := sctx.Following[c.AuthorID]; followed {
				continue
			}
		}
		if sctx.seen(models.ItemTypeContent, c.ID) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// filterSponsored drops sponsored items already seen this session or whose
// impression count within their own rolling window has reached the per-user
// cap, then orders the remainder by priority, budget, and id.
func filterSponsored(raw []models.SponsoredItem, sctx *SignalContext, now time.Time) []models.SponsoredItem {
	filtered := raw[:0:0]
	for _, item := range raw {
		if sctx.seen(models.ItemTypeSponsored, item.ID) {
			continue
		}
		if capReached(item, sctx.SponsoredImpressions[item.ID], now) {
			continue
		}
		filtered = append(filtered, item)
	}
	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.DailyBudget != b.DailyBudget {
			return a.DailyBudget > b.DailyBudget
		}
		return a.ID < b.ID
	})
	return filtered
}

// capReached counts impressions inside the item's rolling window. Frequency
// capping counts occurrences; it does not use distinct semantics.
func capReached(item models.SponsoredItem, impressions []time.Time, now time.Time) bool {
	if item.MaxImpressionsPerUser <= 0 {
		return false
	}
	window := time.Duration(item.FrequencyCapHours) * time.Hour
	if window <= 0 {
		window = maxFrequencyCapWindow
	}
	cutoff := now.Add(-window)
	count := 0
	for _, at := range impressions {
		if !at.Before(cutoff) {
			count++
		}
	}
	return count >= item.MaxImpressionsPerUser
}

// filterAccounts drops profiles that are blocked, already followed, the
// user themself, or already shown this session.
func filterAccounts(raw []models.Profile, sctx *SignalContext) []models.Profile {
	filtered := raw[:0:0]
	for _, p := range raw {
		if _, excluded := sctx.ExcludedAuthors[p.ID]; excluded {
			continue
		}
		if _, followed := sctx.Following[p.ID]; followed {
			continue
		}
		if sctx.seen(models.ItemTypeAccountSuggestion, p.ID) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// scorePool scores one content pool and sorts it into emission order.
// Candidates outside the pool's recency window are dropped here.
func (e *Engine) scorePool(candidates []models.Candidate, pool Pool, sctx *SignalContext, cfg *Config, now time.Time) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score, ok := scoreCandidate(c, pool, sctx, cfg, now)
		if !ok {
			continue
		}
		scored = append(scored, ScoredCandidate{Candidate: c, Score: score, Pool: pool})
	}
	sortScored(scored)
	return scored
}

// signalDegraded logs and counts a degraded signal fetch. Availability wins
// over completeness: the request continues with an empty result.
func (e *Engine) signalDegraded(ctx context.Context, signal string, err error) {
	if ctx.Err() != nil {
		return
	}
	metrics.SignalFetchFailures.WithLabelValues(signal).Inc()
	e.logger.Warn().Str("signal", signal).Err(err).Msg("signal fetch degraded to empty")
}

// usesPool reports whether the deployment draws from the given pool.
func (c *Config) usesPool(p Pool) bool {
	return c.PrimaryPool == p || c.SecondaryPool == p
}

// contentPools returns the distinct content pools the deployment uses.
func (c *Config) contentPools() []Pool {
	if c.SecondaryPool == c.PrimaryPool {
		return []Pool{c.PrimaryPool}
	}
	return []Pool{c.PrimaryPool, c.SecondaryPool}
}
