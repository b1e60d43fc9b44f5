// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package models

import "time"

// ItemType classifies a unit of content eligible for display.
type ItemType string

const (
	// ItemTypeContent is an organic content item (post).
	ItemTypeContent ItemType = "content"
	// ItemTypeSponsored is a paid placement subject to frequency capping.
	ItemTypeSponsored ItemType = "sponsored"
	// ItemTypeAccountSuggestion is a follow-suggestion card.
	ItemTypeAccountSuggestion ItemType = "account_suggestion"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeContent, ItemTypeSponsored, ItemTypeAccountSuggestion:
		return true
	default:
		return false
	}
}

// EngagementCounts holds the raw engagement counters for a content item.
// All counts are non-negative.
type EngagementCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Saves    int `json:"saves"`
}

// Candidate is a unit of content eligible for display in a feed.
//
// A Candidate is an immutable snapshot for the duration of one request. The
// retrieval layer assembles candidates from the signal store and nothing
// mutates them after scoring.
type Candidate struct {
	// ID is an opaque identifier, unique within the item type.
	ID string `json:"id"`

	// Type is the item type. Pool fetchers only ever return content
	// candidates; sponsored and account items travel as their own types.
	Type ItemType `json:"type"`

	// AuthorID identifies the author. Empty for sponsored items and
	// account cards.
	AuthorID string `json:"author_id,omitempty"`

	// CreatedAt is the publication time. Zero for types that are not
	// time-decayed.
	CreatedAt time.Time `json:"created_at"`

	// Tags is the set of topic tags attached to the item.
	Tags []string `json:"tags,omitempty"`

	// Engagement holds the raw engagement counters.
	Engagement EngagementCounts `json:"engagement"`
}

// SponsoredItem is a paid placement with per-user delivery constraints.
type SponsoredItem struct {
	Candidate

	// MaxImpressionsPerUser caps how many times one user may see this
	// item within the frequency-cap window. Zero means uncapped.
	MaxImpressionsPerUser int `json:"max_impressions_per_user"`

	// FrequencyCapHours is the rolling window for the impression cap.
	FrequencyCapHours int `json:"frequency_cap_hours"`

	// StartDate and EndDate bound the flight. Nil means unbounded.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// DailyBudget and Priority are used only as sort tiebreaks among
	// eligible sponsored items.
	DailyBudget float64 `json:"daily_budget,omitempty"`
	Priority    int     `json:"priority,omitempty"`
}

// Profile is an account snapshot used for account-suggestion cards.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Bio           string `json:"bio,omitempty"`
	FollowerCount int    `json:"follower_count"`
}

// ExposureRecord is one append-only entry in the exposure ledger.
// Records are inserted after a page has been rendered and are never updated
// or deleted by the engine.
type ExposureRecord struct {
	UserID   string    `json:"user_id"`
	ItemID   string    `json:"item_id"`
	ItemType ItemType  `json:"item_type"`
	SeenAt   time.Time `json:"seen_at"`
}

// OrderedItem is one slot in an assembled feed page. Exactly one of the
// payload fields is set, selected by Type:
//
//   - content: Content, Score, Pool
//   - sponsored: Sponsored
//   - account_suggestion: Profile, Reason
type OrderedItem struct {
	Type ItemType `json:"type"`

	Content *Candidate `json:"content,omitempty"`
	Score   float64    `json:"score,omitempty"`
	Pool    string     `json:"pool,omitempty"`

	Sponsored *SponsoredItem `json:"sponsored,omitempty"`

	Profile *Profile `json:"profile,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// ItemID returns the identifier of whichever payload the item carries.
func (o OrderedItem) ItemID() string {
	switch o.Type {
	case ItemTypeContent:
		if o.Content != nil {
			return o.Content.ID
		}
	case ItemTypeSponsored:
		if o.Sponsored != nil {
			return o.Sponsored.ID
		}
	case ItemTypeAccountSuggestion:
		if o.Profile != nil {
			return o.Profile.ID
		}
	}
	return ""
}

// FeedPage is the result of one feed assembly request.
type FeedPage struct {
	Items      []OrderedItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}
