// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Package api provides the HTTP surface: Chi routing, middleware, and the
// feed handlers.
//
// Authentication is owned by the platform gateway; requests arrive with
// the authenticated user id in the X-User-ID header. The only
// caller-visible errors are input validation failures. Everything behind
// the handlers degrades rather than failing.
package api
