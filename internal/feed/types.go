// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"sort"
	"time"

	"github.com/pulseapp/feedengine/internal/models"
)

// Pool identifies the source a candidate was drawn from.
type Pool int

const (
	// PoolFollowed holds content from authors the user follows.
	PoolFollowed Pool = iota
	// PoolSuggested holds algorithmically suggested content from
	// authors the user does not follow.
	PoolSuggested
	// PoolNearby holds geographically proximate content.
	PoolNearby
	// PoolSponsored holds paid placements.
	PoolSponsored
	// PoolAccount holds account-suggestion cards.
	PoolAccount
)

// String returns the wire name of the pool.
func (p Pool) String() string {
	switch p {
	case PoolFollowed:
		return "followed"
	case PoolSuggested:
		return "suggested"
	case PoolNearby:
		return "nearby"
	case PoolSponsored:
		return "sponsored"
	case PoolAccount:
		return "account"
	default:
		return "unknown"
	}
}

// ScoredCandidate pairs a candidate with its score and source pool.
type ScoredCandidate struct {
	Candidate models.Candidate
	Score     float64
	Pool      Pool
}

// sortScored orders candidates by (score desc, createdAt desc, id asc).
// The id tie-break guarantees reproducible ordering for identical inputs,
// which pagination consistency depends on.
func sortScored(items []ScoredCandidate) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Candidate.CreatedAt.Equal(b.Candidate.CreatedAt) {
			return a.Candidate.CreatedAt.After(b.Candidate.CreatedAt)
		}
		return a.Candidate.ID < b.Candidate.ID
	})
}

// SignalContext is the per-request bundle of behavioral signals, computed
// once before scoring. Lifetime is a single request.
type SignalContext struct {
	// ExcludedAuthors is the union of blocked authors and the requesting
	// user (nobody sees their own content in suggestion pools).
	ExcludedAuthors map[string]struct{}

	// Following maps followed author ids to historical interaction
	// counts, the raw input to the relationship score.
	Following map[string]int

	// InterestWeights maps interest tags to learned weights.
	InterestWeights map[string]float64

	// Seen maps item type to the set of recently seen ids, the union of
	// the cooldown ledger and the ids carried in the request cursor.
	Seen map[models.ItemType]map[string]struct{}

	// LocationBucket is the user's geographic bucket, empty when the
	// signal is unavailable.
	LocationBucket string

	// SponsoredImpressions maps sponsored item id to the timestamps of
	// impressions recorded for this user, newest-agnostic. Used for
	// per-item frequency capping, which counts occurrences rather than
	// testing membership.
	SponsoredImpressions map[string][]time.Time
}

// newSignalContext returns a context with all sets allocated empty.
func newSignalContext() *SignalContext {
	return &SignalContext{
		ExcludedAuthors:      make(map[string]struct{}),
		Following:            make(map[string]int),
		InterestWeights:      make(map[string]float64),
		Seen:                 make(map[models.ItemType]map[string]struct{}),
		SponsoredImpressions: make(map[string][]time.Time),
	}
}

// seen reports whether id of type t is in the seen set.
func (s *SignalContext) seen(t models.ItemType, id string) bool {
	set, ok := s.Seen[t]
	if !ok {
		return false
	}
	_, ok = set[id]
	return ok
}

// markSeen adds id of type t to the seen set.
func (s *SignalContext) markSeen(t models.ItemType, id string) {
	set, ok := s.Seen[t]
	if !ok {
		set = make(map[string]struct{})
		s.Seen[t] = set
	}
	set[id] = struct{}{}
}

// Request describes one feed assembly request.
type Request struct {
	// UserID identifies the requesting user. Required.
	UserID string

	// Cursor is the opaque pagination token from the previous page, or
	// empty for the first page. Malformed cursors are treated as empty.
	Cursor string

	// Limit is the requested page size. Zero selects the configured
	// default; values above the configured maximum are clamped.
	Limit int

	// Now pins the request clock. Zero means time.Now().UTC(). Tests pin
	// this for determinism.
	Now time.Time

	// Overrides optionally adjusts safe tunables for this request only.
	Overrides *Overrides
}

// Response is one assembled feed page plus resumption state.
type Response struct {
	Items      []models.OrderedItem
	NextCursor string
	HasMore    bool
}
