// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/models"
)

func testEngine(cfg Config) *Engine {
	return &Engine{config: cfg, logger: zerolog.Nop()}
}

func contentPool(pool Pool, prefix string, n int) []ScoredCandidate {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]ScoredCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ScoredCandidate{
			Candidate: models.Candidate{
				ID:        fmt.Sprintf("%s-%d", prefix, i),
				Type:      models.ItemTypeContent,
				AuthorID:  fmt.Sprintf("author-%d", i),
				CreatedAt: base.Add(-time.Duration(i) * time.Minute),
			},
			Score: float64(n - i),
			Pool:  pool,
		})
	}
	return out
}

func sponsoredPool(n int) []models.SponsoredItem {
	out := make([]models.SponsoredItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.SponsoredItem{
			Candidate: models.Candidate{
				ID:   fmt.Sprintf("ad-%d", i),
				Type: models.ItemTypeSponsored,
			},
		})
	}
	return out
}

func itemIDs(items []models.OrderedItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ItemID()
	}
	return ids
}

func TestInterleavePrimaryOnly(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 0
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{primary: contentPool(PoolFollowed, "p", 12)}

	items, hasMore := e.interleave(&cfg, cursor, pools, 10)
	if len(items) != 10 {
		t.Fatalf("emitted %d items, want 10", len(items))
	}
	if !hasMore {
		t.Error("hasMore = false with 2 candidates remaining")
	}
	for i, item := range items {
		want := fmt.Sprintf("p-%d", i)
		if item.ItemID() != want {
			t.Errorf("position %d = %s, want %s", i, item.ItemID(), want)
		}
	}
	if cursor.OrganicCount != 10 || cursor.Position != 10 {
		t.Errorf("cursor counters = organic %d position %d, want 10/10", cursor.OrganicCount, cursor.Position)
	}
}

func TestInterleaveAdCadence(t *testing.T) {
	// 30 organic candidates, 3 sponsored, ad every 8 organic items. Ads
	// land at slots 8, 17 and 26: each waits for a full interval of
	// organic items.
	cfg := HomeConfig()
	cfg.AdInterval = 8
	cfg.MixInterval = 0
	cfg.MaxLimit = 50
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary:   contentPool(PoolFollowed, "p", 30),
		sponsored: sponsoredPool(3),
	}

	items, hasMore := e.interleave(&cfg, cursor, pools, 40)
	if len(items) != 33 {
		t.Fatalf("emitted %d items, want 33", len(items))
	}
	if hasMore {
		t.Error("hasMore = true after all pools drained")
	}

	adSlots := make([]int, 0, 3)
	for i, item := range items {
		if item.Type == models.ItemTypeSponsored {
			adSlots = append(adSlots, i)
		}
	}
	want := []int{8, 17, 26}
	if len(adSlots) != len(want) {
		t.Fatalf("sponsored slots %v, want %v", adSlots, want)
	}
	for i := range want {
		if adSlots[i] != want[i] {
			t.Fatalf("sponsored slots %v, want %v", adSlots, want)
		}
	}
	if cursor.AdCount != 3 {
		t.Errorf("cursor.AdCount = %d, want 3", cursor.AdCount)
	}
}

func TestInterleaveAdIntervalZeroDisablesAds(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 0
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary:   contentPool(PoolFollowed, "p", 10),
		sponsored: sponsoredPool(5),
	}

	items, _ := e.interleave(&cfg, cursor, pools, 10)
	for i, item := range items {
		if item.Type == models.ItemTypeSponsored {
			t.Fatalf("sponsored item at slot %d with ad_interval 0", i)
		}
	}
}

func TestInterleaveMixInterval(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 4
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary:   contentPool(PoolFollowed, "p", 20),
		secondary: contentPool(PoolSuggested, "s", 20),
	}

	items, _ := e.interleave(&cfg, cursor, pools, 10)
	got := itemIDs(items)
	want := []string{"p-0", "p-1", "p-2", "p-3", "s-0", "p-4", "p-5", "p-6", "p-7", "s-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence %v, want %v", got, want)
		}
	}
}

func TestInterleaveSecondaryWhenPrimaryExhausted(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 0
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary:   contentPool(PoolFollowed, "p", 3),
		secondary: contentPool(PoolSuggested, "s", 5),
	}

	items, _ := e.interleave(&cfg, cursor, pools, 6)
	got := itemIDs(items)
	want := []string{"p-0", "p-1", "p-2", "s-0", "s-1", "s-2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence %v, want %v", got, want)
		}
	}
}

func TestInterleaveAccountCardsOnlyAfterContentExhausted(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 0
	cfg.AccountSuggestions = AccountSuggestionConfig{StartIndex: 2, Interval: 2, MaxPerPage: 2}
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary: contentPool(PoolFollowed, "p", 4),
		accounts: []models.Profile{
			{ID: "acct-1", Username: "u1"},
			{ID: "acct-2", Username: "u2"},
			{ID: "acct-3", Username: "u3"},
		},
	}

	items, _ := e.interleave(&cfg, cursor, pools, 10)
	got := itemIDs(items)
	// Content fills slots 0-3; position 4 is on the card grid, so one card
	// follows, then position 5 is off-grid and no content remains, so the
	// page ends at the max-per-page / grid boundary.
	want := []string{"p-0", "p-1", "p-2", "p-3", "acct-1"}
	if len(got) != len(want) {
		t.Fatalf("sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence %v, want %v", got, want)
		}
	}
	if items[4].Type != models.ItemTypeAccountSuggestion || items[4].Reason != "suggested_for_you" {
		t.Errorf("card item = %+v", items[4])
	}
}

func TestInterleaveAccountCardsMaxPerPage(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 0
	cfg.AccountSuggestions = AccountSuggestionConfig{StartIndex: 0, Interval: 1, MaxPerPage: 2}
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		accounts: []models.Profile{
			{ID: "acct-1"}, {ID: "acct-2"}, {ID: "acct-3"}, {ID: "acct-4"},
		},
	}

	items, _ := e.interleave(&cfg, cursor, pools, 10)
	if len(items) != 2 {
		t.Fatalf("emitted %d cards, want 2 (max per page)", len(items))
	}
}

func TestInterleaveRecordsSeenIDs(t *testing.T) {
	cfg := HomeConfig()
	cfg.AdInterval = 2
	cfg.MixInterval = 0
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary:   contentPool(PoolFollowed, "p", 4),
		sponsored: sponsoredPool(1),
	}

	items, _ := e.interleave(&cfg, cursor, pools, 5)
	if len(items) != 5 {
		t.Fatalf("emitted %d items, want 5", len(items))
	}
	if got := cursor.SeenIDs[models.ItemTypeContent]; len(got) != 4 {
		t.Errorf("content seen ids = %v, want 4 entries", got)
	}
	if got := cursor.SeenIDs[models.ItemTypeSponsored]; len(got) != 1 || got[0] != "ad-0" {
		t.Errorf("sponsored seen ids = %v", got)
	}
}

func TestInterleaveCarryOffsetCountsSuggestedOnly(t *testing.T) {
	cfg := DiscoveryConfig()
	cfg.AdInterval = 0
	cfg.MixInterval = 2
	e := testEngine(cfg)

	cursor := newCursorState()
	pools := &poolSet{
		primary:   contentPool(PoolSuggested, "sg", 6),
		secondary: contentPool(PoolNearby, "nb", 3),
	}

	items, _ := e.interleave(&cfg, cursor, pools, 6)
	if len(items) != 6 {
		t.Fatalf("emitted %d items, want 6", len(items))
	}
	// Two suggested, one nearby, repeating: 4 suggested emitted in 6 slots.
	if cursor.Offset != 4 {
		t.Errorf("cursor.Offset = %d, want 4", cursor.Offset)
	}
}

func TestInterleaveResumesFromCursor(t *testing.T) {
	// An ad emitted on the previous page keeps its place in the cadence:
	// with interval 3 and 3 organic + 1 ad already emitted, the next ad
	// waits for 3 more organic items.
	cfg := HomeConfig()
	cfg.AdInterval = 3
	cfg.MixInterval = 0
	e := testEngine(cfg)

	cursor := newCursorState()
	cursor.OrganicCount = 3
	cursor.AdCount = 1
	cursor.Position = 4

	pools := &poolSet{
		primary:   contentPool(PoolFollowed, "p", 6),
		sponsored: sponsoredPool(2),
	}

	items, _ := e.interleave(&cfg, cursor, pools, 4)
	got := itemIDs(items)
	want := []string{"p-0", "p-1", "p-2", "ad-0"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence %v, want %v", got, want)
		}
	}
}
