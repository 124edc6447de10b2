// Package cache keeps catalog responses in Redis so album details are not
// fetched again every time a window slides back over them.
//
// Entries outlive their freshness by a configurable stale window. A stale entry
// is not served directly; it is revalidated with a conditional request
// (If-None-Match / If-Modified-Since) and refreshed on 304 Not Modified.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient, 10*time.Minute)
//
//	key := cache.Key{Endpoint: "/albums/gd1977-05-08"}
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from the catalog, then manager.Set(ctx, key, cache.ResponseToEntry(resp))
//	case entry.IsExpired() && cache.ShouldRevalidate(entry):
//		cache.AddConditionalHeaders(req, entry)
//	default:
//		// serve entry.Data
//	}
//
// # Metrics
//
//   - catalog_cache_hits_total{freshness} - hits split into fresh and stale
//   - catalog_cache_misses_total - misses
//   - catalog_cache_stored_bytes - bytes written to Redis
//   - catalog_304_responses_total - successful revalidations
//   - catalog_cache_errors_total{operation} - Redis/codec failures
package cache
