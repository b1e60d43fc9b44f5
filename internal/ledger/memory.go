// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/pulseapp/feedengine/internal/models"
)

// Memory is an in-memory exposure ledger for tests and throwaway
// deployments. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records []models.ExposureRecord
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends exposure records.
func (m *Memory) Record(_ context.Context, records []models.ExposureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

// SeenIDs returns the distinct item ids seen since the cutoff.
func (m *Memory) SeenIDs(_ context.Context, userID string, itemType models.ItemType, since time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, r := range m.records {
		if r.UserID == userID && r.ItemType == itemType && !r.SeenAt.Before(since) {
			seen[r.ItemID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

// SponsoredImpressions returns impression timestamps per sponsored item
// since the cutoff.
func (m *Memory) SponsoredImpressions(_ context.Context, userID string, since time.Time) (map[string][]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	impressions := make(map[string][]time.Time)
	for _, r := range m.records {
		if r.UserID == userID && r.ItemType == models.ItemTypeSponsored && !r.SeenAt.Before(since) {
			impressions[r.ItemID] = append(impressions[r.ItemID], r.SeenAt)
		}
	}
	return impressions, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
