// Package feeder keeps a bounded playlist window filled from a paginated
// remote catalog.
//
// A window holds at most chunk.songs songs of the active order. Moving the
// play pointer past either edge of the window fetches one chunk of albums in
// that direction, merges its songs and evicts from the opposite side:
//
//	forward:  [a b c] + [d e] -> [c d e]   pointer shifted by -2
//	backward: [c d e] + [a b] -> [a b c]   pointer shifted by +2
//
// Every song carries its remote coordinates (album index, song index, album
// size). After each move the cursor is taken from the song under the pointer,
// so it stays exact whichever side of the window the song came from.
//
// # Failure Handling
//
// Album detail fetches run concurrently and are retried by the catalog
// client. An album that still fails is dropped with a warning and the rest
// of the chunk is used. A failed listing aborts the operation and the window
// and cursor are restored to their state before the call.
//
// # Metrics
//
//   - catalog_feeder_chunks_fetched_total{direction}
//   - catalog_feeder_chunk_duration_seconds
//   - catalog_feeder_albums_dropped_total
//   - catalog_feeder_empty_retries_total
//   - catalog_feeder_evicted_songs_total{direction}
package feeder
