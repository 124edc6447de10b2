package feeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/config"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
	"github.com/Sternrassler/catalog-feeder/pkg/logging"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/iter"
)

// DefaultDetailConcurrency bounds the parallel album detail fetches of one
// chunk.
const DefaultDetailConcurrency = 10

// MaxEmptyRetries bounds how often a chunk is re-fetched when the catalog
// returns albums that have no songs at all.
const MaxEmptyRetries = 3

// MaxSkippedPages bounds how many pages in a row Next and Previous step over
// when every album of a page was dropped.
const MaxSkippedPages = 3

var (
	// ErrExhaustedEmptyRetry is returned when every re-fetch still produced
	// albums without songs.
	ErrExhaustedEmptyRetry = errors.New("catalog keeps returning albums without songs")

	// ErrAlbumsUnreachable is returned when MaxSkippedPages pages in a row
	// lost all their albums.
	ErrAlbumsUnreachable = errors.New("albums unreachable, every album of the skipped pages failed")
)

// Catalog is the remote catalog as seen by the chunk fetcher.
type Catalog interface {
	ListAlbums(ctx context.Context, params catalog.ListParams) (*catalog.AlbumPage, error)
	FetchAlbumDetails(ctx context.Context, identifier string, retry catalog.RetryConfig) (*catalog.Album, error)
}

// Chunk is the flattened result of one page of albums.
type Chunk struct {
	Songs                 []catalog.Song
	SongsInFirstAlbum     int
	NumOfSongsInLastAlbum int
	TotalNumOfAlbums      int

	// FirstAlbum is the remote index of the first album requested.
	FirstAlbum int

	// DroppedAlbums counts the listed albums whose details failed.
	DroppedAlbums int
}

// ChunkFetcher turns one catalog page into a Chunk.
type ChunkFetcher struct {
	catalog     Catalog
	detailRetry catalog.RetryConfig
	concurrency int
	logger      zerolog.Logger
}

// FetcherOption configures a ChunkFetcher.
type FetcherOption func(*ChunkFetcher)

// WithDetailConcurrency bounds the parallel detail fetches. Values <= 0 keep
// DefaultDetailConcurrency.
func WithDetailConcurrency(n int) FetcherOption {
	return func(f *ChunkFetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewChunkFetcher creates a fetcher. Album details are retried with
// catalog.DetailRetryConfig.
func NewChunkFetcher(c Catalog, opts ...FetcherOption) *ChunkFetcher {
	f := &ChunkFetcher{
		catalog:     c,
		detailRetry: catalog.DetailRetryConfig(),
		concurrency: DefaultDetailConcurrency,
		logger:      logging.NewLogger(logging.ComponentChunkFetcher),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch requests the page the strategy derives from cur and dir. filters are
// passed to the catalog as query constraints.
func (f *ChunkFetcher) Fetch(ctx context.Context, strategy order.Strategy, cfg config.FeederConfig, cur cursor.Cursor, dir order.Direction, filters map[string]string) (*Chunk, error) {
	params := strategy.Page(cur, cfg, dir)
	params.Filters = filters

	start := time.Now()
	defer func() {
		chunkDuration.Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; ; attempt++ {
		reqCtx := ctx
		if attempt > 0 {
			// cached responses would hand back the same empty albums
			reqCtx = catalog.WithoutCache(ctx)
		}
		chunk, survivors, err := f.fetchOnce(reqCtx, params)
		if err != nil {
			return nil, err
		}

		if survivors == 0 || len(chunk.Songs) > 0 {
			chunksFetched.WithLabelValues(dir.String()).Inc()
			return chunk, nil
		}

		if attempt >= MaxEmptyRetries {
			f.logger.Error().
				Str("order", strategy.Name()).
				Int("offset", params.Offset).
				Int("attempts", attempt+1).
				Msg("Albums without songs after all retries")
			return nil, fmt.Errorf("%w (offset %d, %d attempts)", ErrExhaustedEmptyRetry, params.Offset, attempt+1)
		}

		emptyRetries.Inc()
		f.logger.Warn().
			Str("order", strategy.Name()).
			Int("offset", params.Offset).
			Int("albums", survivors).
			Int("attempt", attempt+1).
			Msg("Albums without songs, fetching chunk again")
	}
}

// fetchOnce returns the chunk and the number of albums whose details arrived.
func (f *ChunkFetcher) fetchOnce(ctx context.Context, params catalog.ListParams) (*Chunk, int, error) {
	page, err := f.catalog.ListAlbums(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list albums: %w", err)
	}
	if page == nil || len(page.Items) == 0 {
		return emptyChunk(), 0, nil
	}

	// results keep the page order, so index i is album params.Offset+i
	mapper := iter.Mapper[catalog.AlbumRef, *catalog.Album]{MaxGoroutines: f.concurrency}
	albums := mapper.Map(page.Items, func(ref *catalog.AlbumRef) *catalog.Album {
		album, err := f.catalog.FetchAlbumDetails(ctx, ref.Identifier, f.detailRetry)
		if err != nil {
			albumsDropped.Inc()
			f.logger.Warn().
				Err(err).
				Str("album", ref.Identifier).
				Msg("Dropping album after failed detail fetch")
			return nil
		}
		return album
	})

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("fetch album details: %w", err)
	}

	for i, album := range albums {
		if album != nil {
			albums[i] = withCoordinates(album, params.Offset+i)
		}
	}

	survivors := lo.Filter(albums, func(a *catalog.Album, _ int) bool {
		return a != nil
	})
	if len(survivors) == 0 {
		chunk := emptyChunk()
		chunk.DroppedAlbums = len(albums)
		return chunk, 0, nil
	}

	chunk := &Chunk{
		Songs: lo.FlatMap(survivors, func(a *catalog.Album, _ int) []catalog.Song {
			return a.Songs
		}),
		SongsInFirstAlbum:     len(survivors[0].Songs),
		NumOfSongsInLastAlbum: len(survivors[len(survivors)-1].Songs),
		TotalNumOfAlbums:      page.Total,
		FirstAlbum:            params.Offset,
		DroppedAlbums:         len(albums) - len(survivors),
	}

	f.logger.Debug().
		Int("offset", params.Offset).
		Int("albums", len(survivors)).
		Int("songs", len(chunk.Songs)).
		Msg("Chunk fetched")

	return chunk, len(survivors), nil
}

// withCoordinates returns a copy of album whose songs carry their remote
// coordinates in catalog order.
func withCoordinates(album *catalog.Album, albumIndex int) *catalog.Album {
	out := *album
	out.Songs = make([]catalog.Song, len(album.Songs))
	for i, s := range album.Songs {
		s.AlbumIndex = albumIndex
		s.SongIndex = i
		s.AlbumSongs = len(album.Songs)
		out.Songs[i] = s
	}
	return &out
}

func emptyChunk() *Chunk {
	return &Chunk{Songs: []catalog.Song{}}
}
