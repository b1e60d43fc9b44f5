// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package feed

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/metrics"
	"github.com/pulseapp/feedengine/internal/models"
)

// Recorder is the write path of the exposure ledger. Callers invoke it
// after a page has been rendered; it is never called from GetFeed.
//
// Recording is best-effort under at-least-once delivery: duplicate inserts
// are tolerated by the ledger, and a failed write is logged and swallowed
// so it can never fail the read path.
type Recorder struct {
	ledger             ExposureLedger
	recordAccountCards bool
	logger             zerolog.Logger
}

// NewRecorder constructs a Recorder. When recordAccountCards is false only
// content and sponsored exposures are persisted.
func NewRecorder(ledger ExposureLedger, recordAccountCards bool, logger zerolog.Logger) *Recorder {
	return &Recorder{
		ledger:             ledger,
		recordAccountCards: recordAccountCards,
		logger:             logger.With().Str("component", "recorder").Logger(),
	}
}

// RecordSeen persists one exposure record per rendered item. Errors are
// retried with backoff and then swallowed.
func (r *Recorder) RecordSeen(ctx context.Context, userID string, items []models.OrderedItem, now time.Time) {
	if userID == "" || len(items) == 0 {
		return
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	records := make([]models.ExposureRecord, 0, len(items))
	for _, item := range items {
		if item.Type == models.ItemTypeAccountSuggestion && !r.recordAccountCards {
			continue
		}
		id := item.ItemID()
		if id == "" {
			continue
		}
		records = append(records, models.ExposureRecord{
			UserID:   userID,
			ItemID:   id,
			ItemType: item.Type,
			SeenAt:   now,
		})
	}
	if len(records) == 0 {
		return
	}

	err := retry.Do(
		func() error {
			return r.ledger.Record(ctx, records)
		},
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug().Uint("attempt", n).Err(err).Msg("retrying exposure write")
		}),
	)
	if err != nil {
		metrics.RecorderFailures.Inc()
		r.logger.Error().
			Str("user_id", userID).
			Int("records", len(records)).
			Err(err).
			Msg("exposure write dropped after retries")
	}
}
