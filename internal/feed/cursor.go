// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"encoding/base64"

	json "github.com/goccy/go-json"

	"github.com/pulseapp/feedengine/internal/models"
)

// cursorState is the exposure state carried across pages inside the opaque
// pagination token. Ids are stored in emission order (oldest first) so the
// size cap can evict the oldest entries; the cooldown ledger covers ids that
// age out of the cursor.
//
// The token is base64(JSON) and therefore grows with session length. The
// per-type cap bounds that growth; an uncapped session would otherwise carry
// an unbounded seen set, which is the documented scaling limit of
// client-held exposure state.
type cursorState struct {
	// SeenIDs maps item type to the ids already emitted this session.
	SeenIDs map[models.ItemType][]string `json:"seen,omitempty"`

	// OrganicCount is the running count of organic (content) items
	// emitted this session.
	OrganicCount int `json:"organic,omitempty"`

	// AdCount is the running count of sponsored items emitted.
	AdCount int `json:"ads,omitempty"`

	// SinceMix counts primary-pool items since the last secondary-pool
	// insertion.
	SinceMix int `json:"since_mix,omitempty"`

	// Position is the absolute emission position, used for
	// account-suggestion card placement.
	Position int `json:"position,omitempty"`

	// Offset is the raw pool offset for deployments whose suggested
	// fetch is offset-paged.
	Offset int `json:"offset,omitempty"`
}

// newCursorState returns the zero cursor: empty seen sets, zero counters.
func newCursorState() *cursorState {
	return &cursorState{SeenIDs: make(map[models.ItemType][]string)}
}

// decodeCursor decodes an opaque token. Decoding never fails: a malformed
// or corrupt token degrades to the zero state so a bad cursor reads as
// "start of feed", never as an error. The second return reports whether the
// token was rejected, for observability only.
func decodeCursor(token string) (*cursorState, bool) {
	if token == "" {
		return newCursorState(), false
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return newCursorState(), true
	}
	var state cursorState
	if err := json.Unmarshal(raw, &state); err != nil {
		return newCursorState(), true
	}
	if state.SeenIDs == nil {
		state.SeenIDs = make(map[models.ItemType][]string)
	}
	// Counters never go negative; a token claiming otherwise is corrupt.
	if state.OrganicCount < 0 || state.AdCount < 0 || state.SinceMix < 0 || state.Position < 0 || state.Offset < 0 {
		return newCursorState(), true
	}
	return &state, false
}

// encodeCursor serializes the state into an opaque token.
func encodeCursor(state *cursorState) string {
	raw, err := json.Marshal(state)
	if err != nil {
		// cursorState contains only maps, slices, strings, and ints;
		// marshaling cannot fail. Degrade to an empty token anyway.
		return ""
	}
	return base64.URLEncoding.EncodeToString(raw)
}

// addSeen appends id to the per-type seen list, evicting the oldest entries
// once the list exceeds cap.
func (c *cursorState) addSeen(t models.ItemType, id string, cap int) {
	ids := append(c.SeenIDs[t], id)
	if cap > 0 && len(ids) > cap {
		ids = ids[len(ids)-cap:]
	}
	c.SeenIDs[t] = ids
}

// seenSet materializes the per-type seen list as a set for filtering.
func (c *cursorState) seenSet(t models.ItemType) map[string]struct{} {
	ids := c.SeenIDs[t]
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
