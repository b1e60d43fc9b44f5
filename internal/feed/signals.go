// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"context"
	"time"

	"github.com/pulseapp/feedengine/internal/models"
)

// SignalStore is the read-only query capability the engine consumes. It is
// implemented by the storage layer; the engine owns no persistence.
//
// Every method is a stateless read. Implementations must not assume any
// particular result ordering is required: ordering is imposed only by the
// scoring model. Pool fetchers take an exclusion set and a soft limit; the
// engine over-fetches by a configured factor to survive downstream
// filtering without refetching.
//
// Failure contract: the engine treats a failed fetch as an empty result for
// that signal, so implementations should return their natural errors and
// let the engine degrade.
type SignalStore interface {
	// FollowingIDs returns the author ids the user follows.
	FollowingIDs(ctx context.Context, userID string) ([]string, error)

	// BlockedIDs returns the author ids the user has blocked.
	BlockedIDs(ctx context.Context, userID string) ([]string, error)

	// InterestWeights returns the user's learned tag weights.
	InterestWeights(ctx context.Context, userID string) (map[string]float64, error)

	// LocationBucket returns the user's geographic bucket, empty when
	// unknown.
	LocationBucket(ctx context.Context, userID string) (string, error)

	// RelationshipStrength returns historical interaction counts (likes
	// and comments by the user on each author's content).
	RelationshipStrength(ctx context.Context, userID string, authorIDs []string) (map[string]int, error)

	// FollowedPosts returns recent content authored by the given
	// authors, at most limit items.
	FollowedPosts(ctx context.Context, authorIDs []string, limit int) ([]models.Candidate, error)

	// SuggestedPosts returns suggested content excluding the given
	// authors, at most limit items. Offset supports offset-paged
	// deployments; stores without native offsets may ignore it.
	SuggestedPosts(ctx context.Context, userID string, excludeAuthors map[string]struct{}, offset, limit int) ([]models.Candidate, error)

	// NearbyPosts returns content from the given location bucket,
	// excluding the given authors, at most limit items.
	NearbyPosts(ctx context.Context, bucket string, excludeAuthors map[string]struct{}, limit int) ([]models.Candidate, error)

	// EligibleSponsoredItems returns sponsored items whose flight window
	// contains now, at most limit items.
	EligibleSponsoredItems(ctx context.Context, now time.Time, limit int) ([]models.SponsoredItem, error)

	// AccountSuggestions returns profiles the user might follow,
	// excluding the given account ids, at most limit items.
	AccountSuggestions(ctx context.Context, userID string, exclude map[string]struct{}, limit int) ([]models.Profile, error)
}

// ExposureLedger is the append-only record of what each user has been
// shown. Reads use distinct semantics for cooldown (duplicate inserts from
// at-least-once delivery are tolerated) and occurrence counts for sponsored
// frequency capping.
type ExposureLedger interface {
	// Record appends exposure records. Duplicates are tolerated.
	Record(ctx context.Context, records []models.ExposureRecord) error

	// SeenIDs returns the distinct item ids of the given type the user
	// has seen since the cutoff.
	SeenIDs(ctx context.Context, userID string, itemType models.ItemType, since time.Time) ([]string, error)

	// SponsoredImpressions returns, per sponsored item id, the
	// timestamps of impressions recorded for the user since the cutoff.
	SponsoredImpressions(ctx context.Context, userID string, since time.Time) (map[string][]time.Time, error)
}
