// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package metrics defines the Prometheus collectors for the feed pipeline.
// Collectors are registered with the default registry via promauto and
// exposed on /metrics by the HTTP layer.
package metrics
