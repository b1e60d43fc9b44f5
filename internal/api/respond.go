// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package api

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding failures after the header is written can only be logged
	// by the caller; the standard library has already committed the
	// status line.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a uniform JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
