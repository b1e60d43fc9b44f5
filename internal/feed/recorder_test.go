// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/models"
)

func sampleItems() []models.OrderedItem {
	return []models.OrderedItem{
		{Type: models.ItemTypeContent, Content: &models.Candidate{ID: "post-1"}},
		{Type: models.ItemTypeSponsored, Sponsored: &models.SponsoredItem{Candidate: models.Candidate{ID: "ad-1"}}},
		{Type: models.ItemTypeAccountSuggestion, Profile: &models.Profile{ID: "acct-1"}},
	}
}

func TestRecordSeenWritesContentAndSponsored(t *testing.T) {
	ledger := &mockLedger{}
	r := NewRecorder(ledger, false, zerolog.Nop())

	r.RecordSeen(context.Background(), "u1", sampleItems(), engineNow)

	if len(ledger.records) != 2 {
		t.Fatalf("wrote %d records, want 2", len(ledger.records))
	}
	byID := make(map[string]models.ExposureRecord)
	for _, rec := range ledger.records {
		byID[rec.ItemID] = rec
	}
	if _, ok := byID["acct-1"]; ok {
		t.Error("account card recorded with recordAccountCards disabled")
	}
	rec, ok := byID["post-1"]
	if !ok {
		t.Fatal("content record missing")
	}
	if rec.UserID != "u1" || rec.ItemType != models.ItemTypeContent || !rec.SeenAt.Equal(engineNow) {
		t.Errorf("record = %+v", rec)
	}
	if byID["ad-1"].ItemType != models.ItemTypeSponsored {
		t.Errorf("sponsored record = %+v", byID["ad-1"])
	}
}

func TestRecordSeenIncludesAccountCardsWhenEnabled(t *testing.T) {
	ledger := &mockLedger{}
	r := NewRecorder(ledger, true, zerolog.Nop())

	r.RecordSeen(context.Background(), "u1", sampleItems(), engineNow)

	if len(ledger.records) != 3 {
		t.Fatalf("wrote %d records, want 3", len(ledger.records))
	}
}

func TestRecordSeenSkipsEmptyInput(t *testing.T) {
	ledger := &mockLedger{}
	r := NewRecorder(ledger, true, zerolog.Nop())

	r.RecordSeen(context.Background(), "", sampleItems(), engineNow)
	r.RecordSeen(context.Background(), "u1", nil, engineNow)
	r.RecordSeen(context.Background(), "u1", []models.OrderedItem{{Type: models.ItemTypeContent}}, engineNow)

	if ledger.recordCalls != 0 {
		t.Errorf("ledger called %d times for empty input", ledger.recordCalls)
	}
}

func TestRecordSeenRetriesAndSwallowsFailure(t *testing.T) {
	ledger := &mockLedger{err: errors.New("write failed")}
	r := NewRecorder(ledger, false, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.RecordSeen(context.Background(), "u1", sampleItems(), engineNow)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("RecordSeen did not return")
	}
	if ledger.recordCalls != 3 {
		t.Errorf("ledger called %d times, want 3 attempts", ledger.recordCalls)
	}
}
