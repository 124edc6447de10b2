// Package metrics exposes the Prometheus registry of the catalog feeder.
// All metrics are defined in their respective packages (catalog, cache,
// ratelimit, feeder) via promauto, so this package only serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers its metrics with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - catalog_rate_limit_remaining (Gauge): Requests remaining in the catalog rate limit window
//   - catalog_rate_limit_blocks_total (Counter): Requests blocked at the critical limit
//   - catalog_rate_limit_throttles_total (Counter): Requests throttled at the warning limit
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{freshness} (Counter): Cache hits by freshness (fresh, stale)
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_stored_bytes (Counter): Bytes written to the cache
//   - catalog_304_responses_total (Counter): 304 Not Modified responses
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/catalog):
//   - catalog_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - catalog_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted their retries
//   - catalog_breaker_open (Gauge): 1 while the listing circuit breaker is open
//
// Feeder Metrics (pkg/feeder):
//   - catalog_feeder_chunks_fetched_total{direction} (Counter): Chunks merged by direction
//   - catalog_feeder_chunk_duration_seconds (Histogram): Time to fetch one chunk
//   - catalog_feeder_albums_dropped_total (Counter): Albums dropped after failed detail fetches
//   - catalog_feeder_empty_retries_total (Counter): Chunk re-fetches caused by albums without songs
//   - catalog_feeder_skipped_pages_total{direction} (Counter): Pages stepped over after all their albums were dropped
//   - catalog_feeder_evicted_songs_total{direction} (Counter): Songs evicted from windows
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(catalog_cache_hits_total[5m])) /
//	(sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//	# Dropped Albums per Chunk
//	rate(catalog_feeder_albums_dropped_total[5m]) / rate(catalog_feeder_chunks_fetched_total[5m])
//
//	# P95 Chunk Latency
//	histogram_quantile(0.95, rate(catalog_feeder_chunk_duration_seconds_bucket[5m]))
