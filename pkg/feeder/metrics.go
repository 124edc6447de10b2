package feeder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chunksFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_feeder_chunks_fetched_total",
		Help: "Total chunks fetched by traversal direction",
	}, []string{"direction"})

	chunkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_feeder_chunk_duration_seconds",
		Help:    "Time to fetch one chunk including album details",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	albumsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_feeder_albums_dropped_total",
		Help: "Total albums dropped after their detail fetch failed",
	})

	emptyRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_feeder_empty_retries_total",
		Help: "Total chunk re-fetches caused by albums without songs",
	})

	skippedPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_feeder_skipped_pages_total",
		Help: "Total pages stepped over because all their albums were dropped",
	}, []string{"direction"})

	evictedSongs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_feeder_evicted_songs_total",
		Help: "Total songs evicted from windows by merge direction",
	}, []string{"direction"})
)
