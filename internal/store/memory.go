// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package store

import (
	"context"
	"sync"
	"time"

	"github.com/pulseapp/feedengine/internal/models"
)

// Memory is an in-memory signal store for standalone deployments and
// tests. All methods are safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	// Follows maps user id to followed author ids.
	Follows map[string][]string

	// Blocks maps user id to blocked author ids.
	Blocks map[string][]string

	// Interests maps user id to tag weights.
	Interests map[string]map[string]float64

	// Locations maps user id to geographic bucket.
	Locations map[string]string

	// Interactions maps user id to per-author historical interaction
	// counts.
	Interactions map[string]map[string]int

	// Posts is the content pool. AuthorBuckets maps author id to
	// geographic bucket for nearby lookups.
	Posts         []models.Candidate
	AuthorBuckets map[string]string

	// Sponsored is the sponsored item pool.
	Sponsored []models.SponsoredItem

	// Profiles is the account-suggestion pool.
	Profiles []models.Profile
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		Follows:       make(map[string][]string),
		Blocks:        make(map[string][]string),
		Interests:     make(map[string]map[string]float64),
		Locations:     make(map[string]string),
		Interactions:  make(map[string]map[string]int),
		AuthorBuckets: make(map[string]string),
	}
}

// FollowingIDs returns the authors the user follows.
func (m *Memory) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.Follows[userID]...), nil
}

// BlockedIDs returns the authors the user has blocked.
func (m *Memory) BlockedIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.Blocks[userID]...), nil
}

// InterestWeights returns the user's tag weights.
func (m *Memory) InterestWeights(_ context.Context, userID string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	weights := make(map[string]float64, len(m.Interests[userID]))
	for tag, w := range m.Interests[userID] {
		weights[tag] = w
	}
	return weights, nil
}

// LocationBucket returns the user's geographic bucket.
func (m *Memory) LocationBucket(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Locations[userID], nil
}

// RelationshipStrength returns historical interaction counts per author.
func (m *Memory) RelationshipStrength(_ context.Context, userID string, authorIDs []string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int, len(authorIDs))
	for _, id := range authorIDs {
		counts[id] = m.Interactions[userID][id]
	}
	return counts, nil
}

// FollowedPosts returns content authored by the given authors.
func (m *Memory) FollowedPosts(_ context.Context, authorIDs []string, limit int) ([]models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}
	var out []models.Candidate
	for _, post := range m.Posts {
		if len(out) >= limit {
			break
		}
		if _, ok := authors[post.AuthorID]; ok {
			out = append(out, post)
		}
	}
	return out, nil
}

// SuggestedPosts returns content from authors outside the exclusion set.
func (m *Memory) SuggestedPosts(_ context.Context, _ string, excludeAuthors map[string]struct{}, offset, limit int) ([]models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Candidate
	skipped := 0
	for _, post := range m.Posts {
		if len(out) >= limit {
			break
		}
		if _, excluded := excludeAuthors[post.AuthorID]; excluded {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, post)
	}
	return out, nil
}

// NearbyPosts returns content whose author sits in the given bucket.
func (m *Memory) NearbyPosts(_ context.Context, bucket string, excludeAuthors map[string]struct{}, limit int) ([]models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Candidate
	for _, post := range m.Posts {
		if len(out) >= limit {
			break
		}
		if m.AuthorBuckets[post.AuthorID] != bucket {
			continue
		}
		if _, excluded := excludeAuthors[post.AuthorID]; excluded {
			continue
		}
		out = append(out, post)
	}
	return out, nil
}

// EligibleSponsoredItems returns sponsored items whose flight window
// contains now.
func (m *Memory) EligibleSponsoredItems(_ context.Context, now time.Time, limit int) ([]models.SponsoredItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.SponsoredItem
	for _, item := range m.Sponsored {
		if len(out) >= limit {
			break
		}
		if item.StartDate != nil && now.Before(*item.StartDate) {
			continue
		}
		if item.EndDate != nil && now.After(*item.EndDate) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// AccountSuggestions returns profiles outside the exclusion set.
func (m *Memory) AccountSuggestions(_ context.Context, _ string, exclude map[string]struct{}, limit int) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Profile
	for _, profile := range m.Profiles {
		if len(out) >= limit {
			break
		}
		if _, excluded := exclude[profile.ID]; excluded {
			continue
		}
		out = append(out, profile)
	}
	return out, nil
}
