// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"math"
	"time"

	"github.com/pulseapp/feedengine/internal/models"
)

// Scoring is pure: every function here is a function of its arguments only.
// The request clock is threaded in as now; nothing reads time.Now.

// recencyScore decays linearly from 1 at age zero to 0 at maxHours.
// Ages beyond the window return 0; callers treat that as exclusion.
func recencyScore(createdAt, now time.Time, maxHours float64) float64 {
	if maxHours <= 0 || createdAt.IsZero() {
		return 0
	}
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	score := 1 - ageHours/maxHours
	if score < 0 {
		return 0
	}
	return score
}

// flatEngagementScore is the log-engagement form used by discovery pools:
// log2(1 + likes + 2*comments).
func flatEngagementScore(e models.EngagementCounts) float64 {
	return math.Log2(1 + float64(e.Likes) + 2*float64(e.Comments))
}

// velocityEngagementScore is the engagement form used by the followed pool:
// log2(1 + (likes + 2*comments + 3*saves) / max(1, ageHours)).
// Dividing by age rewards posts gaining traction fast, independent of
// absolute age.
func velocityEngagementScore(e models.EngagementCounts, createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 1 {
		ageHours = 1
	}
	weighted := float64(e.Likes) + 2*float64(e.Comments) + 3*float64(e.Saves)
	return math.Log2(1 + weighted/ageHours)
}

// interestScore sums the user's learned weights over the candidate's tags.
// Unknown tags contribute nothing.
func interestScore(tags []string, weights map[string]float64) float64 {
	var sum float64
	for _, tag := range tags {
		sum += weights[tag]
	}
	return sum
}

// relationshipScore maps a historical interaction count onto [0, 1],
// saturating at 10 interactions.
func relationshipScore(interactions int) float64 {
	if interactions <= 0 {
		return 0
	}
	score := float64(interactions) / 10
	if score > 1 {
		return 1
	}
	return score
}

// scoreCandidate computes the final score of a content candidate for its
// pool. The second return is false when the candidate falls outside the
// pool's recency window and must be excluded from ranking entirely.
func scoreCandidate(c models.Candidate, pool Pool, sctx *SignalContext, cfg *Config, now time.Time) (float64, bool) {
	window := cfg.recencyWindow(pool)
	recency := recencyScore(c.CreatedAt, now, window)
	if recency == 0 && !c.CreatedAt.IsZero() {
		return 0, false
	}

	w := cfg.poolWeights(pool)

	var engagement, affinity float64
	switch pool {
	case PoolFollowed:
		engagement = velocityEngagementScore(c.Engagement, c.CreatedAt, now)
		affinity = relationshipScore(sctx.Following[c.AuthorID])
	case PoolSuggested, PoolNearby:
		engagement = flatEngagementScore(c.Engagement)
		affinity = interestScore(c.Tags, sctx.InterestWeights)
	default:
		return 0, false
	}

	score := w.Recency*recency + w.Engagement*engagement + w.Affinity*affinity
	if pool == PoolNearby {
		score += cfg.NearbyBoost
	}
	return score, true
}
