// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/pulseapp/feedengine/internal/models"
)

func TestCursorRoundTrip(t *testing.T) {
	state := newCursorState()
	state.addSeen(models.ItemTypeContent, "post-1", 0)
	state.addSeen(models.ItemTypeContent, "post-2", 0)
	state.addSeen(models.ItemTypeSponsored, "ad-1", 0)
	state.OrganicCount = 12
	state.AdCount = 2
	state.SinceMix = 3
	state.Position = 14
	state.Offset = 9

	token := encodeCursor(state)
	if token == "" {
		t.Fatal("encodeCursor returned empty token")
	}

	decoded, rejected := decodeCursor(token)
	if rejected {
		t.Fatal("round-tripped token was rejected")
	}
	if got := decoded.SeenIDs[models.ItemTypeContent]; len(got) != 2 || got[0] != "post-1" || got[1] != "post-2" {
		t.Errorf("content seen ids = %v", got)
	}
	if got := decoded.SeenIDs[models.ItemTypeSponsored]; len(got) != 1 || got[0] != "ad-1" {
		t.Errorf("sponsored seen ids = %v", got)
	}
	if decoded.OrganicCount != 12 || decoded.AdCount != 2 || decoded.SinceMix != 3 || decoded.Position != 14 || decoded.Offset != 9 {
		t.Errorf("counters lost in round trip: %+v", decoded)
	}
}

func TestDecodeCursorEmptyToken(t *testing.T) {
	state, rejected := decodeCursor("")
	if rejected {
		t.Error("empty token must not be reported as rejected")
	}
	if state.SeenIDs == nil {
		t.Error("decoded state must have a non-nil seen map")
	}
	if state.OrganicCount != 0 || state.Position != 0 {
		t.Errorf("empty token must decode to zero state, got %+v", state)
	}
}

func TestDecodeCursorFailOpen(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not_base64", "%%%not-base64%%%"},
		{"base64_not_json", base64.URLEncoding.EncodeToString([]byte("garbage"))},
		{"negative_counter", base64.URLEncoding.EncodeToString([]byte(`{"organic":-5}`))},
		{"json_wrong_shape", base64.URLEncoding.EncodeToString([]byte(`{"seen":"nope"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, rejected := decodeCursor(tt.token)
			if !rejected {
				t.Error("bad token should be reported as rejected")
			}
			if state == nil || state.SeenIDs == nil {
				t.Fatal("bad token must still yield a usable zero state")
			}
			if state.OrganicCount != 0 || state.AdCount != 0 || state.Position != 0 {
				t.Errorf("bad token must decode to zero counters, got %+v", state)
			}
		})
	}
}

func TestAddSeenEvictsOldest(t *testing.T) {
	state := newCursorState()
	for i := 0; i < 8; i++ {
		state.addSeen(models.ItemTypeContent, fmt.Sprintf("post-%d", i), 5)
	}

	ids := state.SeenIDs[models.ItemTypeContent]
	if len(ids) != 5 {
		t.Fatalf("seen list length = %d, want cap 5", len(ids))
	}
	// Oldest entries evicted first.
	if ids[0] != "post-3" || ids[4] != "post-7" {
		t.Errorf("unexpected retained window: %v", ids)
	}
}

func TestSeenSet(t *testing.T) {
	state := newCursorState()
	if set := state.seenSet(models.ItemTypeContent); set != nil {
		t.Errorf("empty list should yield nil set, got %v", set)
	}

	state.addSeen(models.ItemTypeContent, "a", 0)
	state.addSeen(models.ItemTypeContent, "b", 0)
	set := state.seenSet(models.ItemTypeContent)
	if len(set) != 2 {
		t.Fatalf("set size = %d, want 2", len(set))
	}
	if _, ok := set["a"]; !ok {
		t.Error("set missing id a")
	}
}
