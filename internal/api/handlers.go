// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pulseapp/feedengine/internal/feed"
	"github.com/pulseapp/feedengine/internal/models"
)

// userIDHeader carries the authenticated user id, set by the platform
// gateway in front of this service.
const userIDHeader = "X-User-ID"

// Handler serves the feed endpoints. One engine per deployment preset.
type Handler struct {
	home      *feed.Engine
	discovery *feed.Engine
	recorder  *feed.Recorder
	logger    zerolog.Logger
}

// NewHandler constructs the handler.
func NewHandler(home, discovery *feed.Engine, recorder *feed.Recorder, logger zerolog.Logger) *Handler {
	return &Handler{
		home:      home,
		discovery: discovery,
		recorder:  recorder,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// HomeFeed handles GET /api/v1/feed/home.
func (h *Handler) HomeFeed(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.home)
}

// DiscoveryFeed handles GET /api/v1/feed/discovery.
func (h *Handler) DiscoveryFeed(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.discovery)
}

func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request, engine *feed.Engine) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	resp, err := engine.GetFeed(r.Context(), feed.Request{
		UserID: userID,
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	switch {
	case errors.Is(err, feed.ErrInvalidUserID), errors.Is(err, feed.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// Only context cancellation reaches here; the engine degrades
		// every other failure.
		h.logger.Error().Err(err).Msg("feed request aborted")
		writeError(w, http.StatusServiceUnavailable, "request aborted")
		return
	}

	writeJSON(w, http.StatusOK, models.FeedPage{
		Items:      resp.Items,
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
	})
}

// seenRequest is the body of POST /api/v1/feed/seen.
type seenRequest struct {
	Items []seenItem `json:"items"`
}

type seenItem struct {
	ID   string          `json:"id"`
	Type models.ItemType `json:"type"`
}

// maxSeenBatch bounds one seen report; larger batches are rejected rather
// than truncated so the client learns its batching is wrong.
const maxSeenBatch = 200

// RecordSeen handles POST /api/v1/feed/seen. The write is best-effort:
// the handler acknowledges as soon as the batch is validated and records
// in the background, so a slow ledger cannot stall rendering clients.
func (h *Handler) RecordSeen(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	var req seenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items must not be empty")
		return
	}
	if len(req.Items) > maxSeenBatch {
		writeError(w, http.StatusBadRequest, "too many items in one report")
		return
	}

	items := make([]models.OrderedItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ID == "" || !item.Type.Valid() {
			writeError(w, http.StatusBadRequest, "every item needs an id and a valid type")
			return
		}
		items = append(items, orderedItemForSeen(item))
	}

	// Detach from the request context: the client disconnecting must not
	// cancel an exposure write already accepted.
	now := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
	go func() {
		defer cancel()
		h.recorder.RecordSeen(ctx, userID, items, now)
	}()

	w.WriteHeader(http.StatusAccepted)
}

// orderedItemForSeen rebuilds the minimal ordered item the recorder needs.
func orderedItemForSeen(item seenItem) models.OrderedItem {
	out := models.OrderedItem{Type: item.Type}
	switch item.Type {
	case models.ItemTypeContent:
		out.Content = &models.Candidate{ID: item.ID, Type: item.Type}
	case models.ItemTypeSponsored:
		out.Sponsored = &models.SponsoredItem{Candidate: models.Candidate{ID: item.ID, Type: item.Type}}
	case models.ItemTypeAccountSuggestion:
		out.Profile = &models.Profile{ID: item.ID}
	}
	return out
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
