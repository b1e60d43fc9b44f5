// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package store provides the signal store implementations consumed by the
// feed engine: a Postgres-backed store for production and an in-memory
// store for standalone mode and tests.
//
// Both satisfy feed.SignalStore. The stores are read-only query adapters:
// they apply no scoring and impose no ordering the engine relies on.
package store
