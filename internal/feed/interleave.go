// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"github.com/pulseapp/feedengine/internal/metrics"
	"github.com/pulseapp/feedengine/internal/models"
)

// interleave merges the scored pools into one output sequence of at most
// limit items, resuming the counters carried in the cursor and advancing
// them as it emits.
//
// Each step resolves the slot rules in strict priority order:
//
//  1. sponsored item, when one is due and available
//  2. secondary-pool item, when the mix interval has elapsed and both a
//     primary and a secondary candidate remain
//  3. primary-pool item
//  4. secondary-pool item (primary exhausted)
//  5. account-suggestion card, when one is due and available
//  6. stop: all pools exhausted
//
// The rule order is fixed. Changing it changes the observable interleaving
// and is a breaking change for paginating clients.
func (e *Engine) interleave(cfg *Config, cursor *cursorState, pools *poolSet, limit int) ([]models.OrderedItem, bool) {
	items := make([]models.OrderedItem, 0, limit)
	accountsEmitted := 0

	for len(items) < limit {
		switch {
		case e.adDue(cfg, cursor) && len(pools.sponsored) > 0:
			item := pools.sponsored[0]
			pools.sponsored = pools.sponsored[1:]
			items = append(items, models.OrderedItem{
				Type:      models.ItemTypeSponsored,
				Sponsored: &item,
			})
			cursor.AdCount++
			cursor.addSeen(models.ItemTypeSponsored, item.ID, cfg.CursorSeenCap)
			metrics.SponsoredEmitted.WithLabelValues(cfg.Deployment).Inc()

		case e.mixDue(cfg, cursor) && len(pools.primary) > 0 && len(pools.secondary) > 0:
			items = append(items, e.emitContent(cfg, cursor, &pools.secondary))
			cursor.SinceMix = 0

		case len(pools.primary) > 0:
			items = append(items, e.emitContent(cfg, cursor, &pools.primary))
			cursor.SinceMix++

		case len(pools.secondary) > 0:
			items = append(items, e.emitContent(cfg, cursor, &pools.secondary))

		case e.accountCardDue(cfg, cursor) && len(pools.accounts) > 0 && accountsEmitted < cfg.AccountSuggestions.MaxPerPage:
			profile := pools.accounts[0]
			pools.accounts = pools.accounts[1:]
			items = append(items, models.OrderedItem{
				Type:    models.ItemTypeAccountSuggestion,
				Profile: &profile,
				Reason:  "suggested_for_you",
			})
			accountsEmitted++
			cursor.addSeen(models.ItemTypeAccountSuggestion, profile.ID, cfg.CursorSeenCap)

		default:
			// All pools exhausted (or only undue account cards remain).
			return items, false
		}
		cursor.Position++
	}

	return items, pools.remaining()
}

// adDue reports whether enough organic items have accumulated since the
// last sponsored slot. The first ad waits for a full interval of organic
// items from the start of the session.
func (e *Engine) adDue(cfg *Config, cursor *cursorState) bool {
	if cfg.AdInterval <= 0 {
		return false
	}
	return cursor.OrganicCount-cursor.AdCount*cfg.AdInterval >= cfg.AdInterval
}

// mixDue reports whether the secondary pool owes an insertion.
func (e *Engine) mixDue(cfg *Config, cursor *cursorState) bool {
	if cfg.MixInterval <= 0 {
		return false
	}
	return cursor.SinceMix >= cfg.MixInterval
}

// accountCardDue reports whether the current position is an eligible card
// slot: at or past the start offset and on the interval grid.
func (e *Engine) accountCardDue(cfg *Config, cursor *cursorState) bool {
	as := cfg.AccountSuggestions
	if as.Interval <= 0 || cursor.Position < as.StartIndex {
		return false
	}
	return (cursor.Position-as.StartIndex)%as.Interval == 0
}

// emitContent pops the head of a content pool and wraps it as an ordered
// item, advancing the organic counters and the cursor seen set.
func (e *Engine) emitContent(cfg *Config, cursor *cursorState, pool *[]ScoredCandidate) models.OrderedItem {
	sc := (*pool)[0]
	*pool = (*pool)[1:]
	cursor.OrganicCount++
	if cfg.CarryOffset && sc.Pool == PoolSuggested {
		cursor.Offset++
	}
	cursor.addSeen(models.ItemTypeContent, sc.Candidate.ID, cfg.CursorSeenCap)
	candidate := sc.Candidate
	return models.OrderedItem{
		Type:    models.ItemTypeContent,
		Content: &candidate,
		Score:   sc.Score,
		Pool:    sc.Pool.String(),
	}
}
