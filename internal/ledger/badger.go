// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package ledger

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/models"
)

// Badger is the embedded exposure ledger for standalone deployments. Each
// exposure is one key with no value:
//
//	exp|<user>|<type>|<item>|<seenAtUnixNano>
//
// The key layout makes both ledger reads a single prefix scan, and Badger's
// entry TTL handles retention without a compaction job.
type Badger struct {
	db        *badger.DB
	retention time.Duration
	logger    zerolog.Logger
}

const badgerKeySep = '|'

// OpenBadger opens (or creates) the ledger at dir. Entries expire after
// retention, which must cover the longest cooldown and frequency-cap
// window in use.
func OpenBadger(dir string, retention time.Duration, logger zerolog.Logger) (*Badger, error) {
	if retention <= 0 {
		retention = 31 * 24 * time.Hour
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}
	return &Badger{
		db:        db,
		retention: retention,
		logger:    logger.With().Str("component", "ledger").Logger(),
	}, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Record appends exposure entries. Re-inserting an identical record
// overwrites the same key, which preserves idempotency under at-least-once
// delivery.
func (b *Badger) Record(_ context.Context, records []models.ExposureRecord) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range records {
		key := exposureKey(r.UserID, r.ItemType, r.ItemID, r.SeenAt)
		entry := badger.NewEntry(key, nil).WithTTL(b.retention)
		if err := wb.SetEntry(entry); err != nil {
			return fmt.Errorf("batch exposure entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush exposure batch: %w", err)
	}
	return nil
}

// SeenIDs returns the distinct item ids seen since the cutoff.
func (b *Badger) SeenIDs(_ context.Context, userID string, itemType models.ItemType, since time.Time) ([]string, error) {
	prefix := scanPrefix(userID, itemType)
	seen := make(map[string]struct{})

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			itemID, seenAt, ok := parseExposureKey(it.Item().Key(), prefix)
			if !ok || seenAt.Before(since) {
				continue
			}
			seen[itemID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan seen ids: %w", err)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

// SponsoredImpressions returns impression timestamps per sponsored item
// since the cutoff.
func (b *Badger) SponsoredImpressions(_ context.Context, userID string, since time.Time) (map[string][]time.Time, error) {
	prefix := scanPrefix(userID, models.ItemTypeSponsored)
	impressions := make(map[string][]time.Time)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			itemID, seenAt, ok := parseExposureKey(it.Item().Key(), prefix)
			if !ok || seenAt.Before(since) {
				continue
			}
			impressions[itemID] = append(impressions[itemID], seenAt)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sponsored impressions: %w", err)
	}
	return impressions, nil
}

func exposureKey(userID string, itemType models.ItemType, itemID string, seenAt time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString("exp")
	buf.WriteByte(badgerKeySep)
	buf.WriteString(userID)
	buf.WriteByte(badgerKeySep)
	buf.WriteString(string(itemType))
	buf.WriteByte(badgerKeySep)
	buf.WriteString(itemID)
	buf.WriteByte(badgerKeySep)
	buf.WriteString(strconv.FormatInt(seenAt.UnixNano(), 10))
	return buf.Bytes()
}

func scanPrefix(userID string, itemType models.ItemType) []byte {
	var buf bytes.Buffer
	buf.WriteString("exp")
	buf.WriteByte(badgerKeySep)
	buf.WriteString(userID)
	buf.WriteByte(badgerKeySep)
	buf.WriteString(string(itemType))
	buf.WriteByte(badgerKeySep)
	return buf.Bytes()
}

// parseExposureKey splits <item>|<nanos> out of a key under prefix. Item
// ids must not contain the separator; the platform's id alphabet is
// URL-safe base62, so this holds.
func parseExposureKey(key, prefix []byte) (string, time.Time, bool) {
	rest := bytes.TrimPrefix(key, prefix)
	sep := bytes.LastIndexByte(rest, badgerKeySep)
	if sep < 0 {
		return "", time.Time{}, false
	}
	nanos, err := strconv.ParseInt(string(rest[sep+1:]), 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return string(rest[:sep]), time.Unix(0, nanos).UTC(), true
}
