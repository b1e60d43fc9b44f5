// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/pulseapp/feedengine/internal/models"
)

var ledgerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemorySeenIDsDistinct(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	records := []models.ExposureRecord{
		{UserID: "u1", ItemID: "p-1", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-1 * time.Hour)},
		{UserID: "u1", ItemID: "p-1", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-2 * time.Hour)},
		{UserID: "u1", ItemID: "p-2", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-3 * time.Hour)},
		{UserID: "u1", ItemID: "ad-1", ItemType: models.ItemTypeSponsored, SeenAt: ledgerNow.Add(-1 * time.Hour)},
		{UserID: "u2", ItemID: "p-9", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-1 * time.Hour)},
	}
	if err := m.Record(ctx, records); err != nil {
		t.Fatalf("Record: %v", err)
	}

	ids, err := m.SeenIDs(ctx, "u1", models.ItemTypeContent, ledgerNow.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("SeenIDs: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "p-1" || ids[1] != "p-2" {
		t.Errorf("SeenIDs = %v, want [p-1 p-2]", ids)
	}
}

func TestMemorySeenIDsCutoff(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Record(ctx, []models.ExposureRecord{
		{UserID: "u1", ItemID: "old", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-80 * time.Hour)},
		{UserID: "u1", ItemID: "recent", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-2 * time.Hour)},
	})

	ids, err := m.SeenIDs(ctx, "u1", models.ItemTypeContent, ledgerNow.Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("SeenIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "recent" {
		t.Errorf("SeenIDs = %v, want [recent]", ids)
	}
}

func TestMemorySponsoredImpressionsCountOccurrences(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Record(ctx, []models.ExposureRecord{
		{UserID: "u1", ItemID: "ad-1", ItemType: models.ItemTypeSponsored, SeenAt: ledgerNow.Add(-1 * time.Hour)},
		{UserID: "u1", ItemID: "ad-1", ItemType: models.ItemTypeSponsored, SeenAt: ledgerNow.Add(-5 * time.Hour)},
		{UserID: "u1", ItemID: "ad-2", ItemType: models.ItemTypeSponsored, SeenAt: ledgerNow.Add(-2 * time.Hour)},
		{UserID: "u1", ItemID: "p-1", ItemType: models.ItemTypeContent, SeenAt: ledgerNow.Add(-1 * time.Hour)},
	})

	impressions, err := m.SponsoredImpressions(ctx, "u1", ledgerNow.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("SponsoredImpressions: %v", err)
	}
	if len(impressions["ad-1"]) != 2 {
		t.Errorf("ad-1 impressions = %d, want 2", len(impressions["ad-1"]))
	}
	if len(impressions["ad-2"]) != 1 {
		t.Errorf("ad-2 impressions = %d, want 1", len(impressions["ad-2"]))
	}
	if _, ok := impressions["p-1"]; ok {
		t.Error("content record counted as sponsored impression")
	}
}
