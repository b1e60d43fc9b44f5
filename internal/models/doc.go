// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package models defines the shared domain types exchanged between the feed
// engine, the signal stores, and the HTTP layer.
//
// Types here are plain data carriers with no behavior beyond small helpers.
// Candidates are immutable snapshots for the duration of one request: the
// retrieval layer owns them and nothing mutates them after scoring.
package models
