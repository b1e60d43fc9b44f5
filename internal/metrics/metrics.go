// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed pipeline metrics

	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total feed assembly requests by deployment and outcome",
		},
		[]string{"deployment", "status"},
	)

	FeedRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_request_duration_seconds",
			Help:    "Feed assembly latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"deployment"},
	)

	PoolCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_pool_candidates",
			Help:    "Raw candidates fetched per pool before interleaving",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"deployment", "pool"},
	)

	SignalFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_signal_fetch_failures_total",
			Help: "Signal fetches that degraded to an empty result",
		},
		[]string{"signal"},
	)

	CursorDecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cursor_decode_failures_total",
			Help: "Malformed pagination cursors that decoded to the zero state",
		},
		[]string{"deployment"},
	)

	SponsoredEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sponsored_emitted_total",
			Help: "Sponsored items placed into assembled pages",
		},
		[]string{"deployment"},
	)

	RecorderFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_exposure_write_failures_total",
			Help: "Exposure ledger writes dropped after retries",
		},
	)

	// Storage metrics

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Signal store query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Signal store query errors",
		},
		[]string{"query"},
	)

	SignalCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_hits_total",
			Help: "Per-user signal cache hits",
		},
	)

	SignalCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_misses_total",
			Help: "Per-user signal cache misses",
		},
	)

	// HTTP metrics

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method, and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// ObserveStoreQuery records one signal store query observation.
func ObserveStoreQuery(query string, start time.Time, err error) {
	StoreQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(query).Inc()
	}
}

// ObserveHTTPRequest records one HTTP request observation.
func ObserveHTTPRequest(route, method string, status int, start time.Time) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}
