// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package feed implements the feed assembly engine.
//
// # Architecture
//
// Given a user, an opaque pagination cursor, and a page size, the engine:
//
//   - fans out read-only signal fetches (relationship graph, block list,
//     interest weights, location bucket, prior-exposure sets) and joins them
//     into a per-request SignalContext
//   - assembles candidate pools over-provisioned against downstream
//     filtering, applying exclusion rules in a fixed order
//   - scores each candidate with pure functions of (candidate, context,
//     config, now)
//   - merges the sorted pools plus sponsored items and account-suggestion
//     cards into one sequence under fixed-priority placement rules
//   - returns the page together with a new cursor carrying the exposure
//     state needed to resume without duplicates
//
// # Design Principles
//
//   - Deterministic: identical inputs (candidates, context, config, now,
//     cursor) produce identical output. Scoring never reads a global clock;
//     now is threaded explicitly.
//   - Fail-open: a malformed cursor decodes to the zero state, a failed
//     signal fetch degrades to empty for that signal, and an empty pool is
//     simply skipped. The only caller-visible failures are invalid inputs.
//   - Stateless: no server-held session state. Cross-request state travels
//     in the cursor (client-held) or the external exposure ledger.
//
// # Deployments
//
// One engine serves both feed surfaces. HomeConfig wires the followed pool
// as primary with suggested content mixed in at a fixed interval and
// velocity-based engagement scoring; DiscoveryConfig wires the suggested
// pool as primary with geographically nearby content as the secondary pool
// and flat log-engagement scoring.
package feed
