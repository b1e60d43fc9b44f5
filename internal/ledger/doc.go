// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package ledger provides exposure ledger implementations: an append-only
// record of which items each user has been shown.
//
// The ledger is the only shared external resource the engine writes. It
// tolerates concurrent, duplicated inserts without coordination: cooldown
// reads use distinct semantics, and only sponsored frequency capping counts
// occurrences.
//
// Three implementations satisfy feed.ExposureLedger: Postgres for
// production, Badger for standalone deployments, and Memory for tests.
package ledger
