package feeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/config"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
	"github.com/Sternrassler/catalog-feeder/pkg/logging"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// OrderSlot is the query slot selecting the order strategy.
const OrderSlot = "order"

var (
	// ErrNoNextSong is returned by Next at the end of the catalog outside
	// loop mode.
	ErrNoNextSong = errors.New("no next song")

	// ErrNoPreviousSong is returned by Previous at the start of the catalog
	// outside loop mode.
	ErrNoPreviousSong = errors.New("no previous song")
)

// Query holds the slot values a playlist was requested with.
type Query struct {
	Slots map[string]string
}

// Order returns the order key, order.Default when the slot is empty.
func (q Query) Order() string {
	if key := q.Slots[OrderSlot]; key != "" {
		return key
	}
	return order.Default
}

// Filters returns every slot except the order as catalog filters.
func (q Query) Filters() map[string]string {
	return lo.OmitByKeys(q.Slots, []string{OrderSlot})
}

// OrderConfigs resolves the feeder configuration of an order key.
type OrderConfigs interface {
	ForOrder(key string) config.FeederConfig
}

// Result summarises a Build.
type Result struct {
	// Total is the album count reported by the catalog.
	Total int `json:"total"`
}

// Feeder fills and moves playlist windows. Calls for the same window must
// not overlap.
type Feeder struct {
	registry *order.Registry
	fetcher  *ChunkFetcher
	configs  OrderConfigs
	logger   zerolog.Logger
}

// New creates a feeder.
func New(registry *order.Registry, fetcher *ChunkFetcher, configs OrderConfigs) *Feeder {
	return &Feeder{
		registry: registry,
		fetcher:  fetcher,
		configs:  configs,
		logger:   logging.NewLogger(logging.ComponentFeeder),
	}
}

func (f *Feeder) resolve(q Query) (order.Strategy, config.FeederConfig, error) {
	strategy, err := f.registry.Get(q.Order())
	if err != nil {
		return nil, config.FeederConfig{}, err
	}
	cfg := f.configs.ForOrder(strategy.Name())
	if cfg.Chunk.Songs <= 0 {
		return nil, config.FeederConfig{}, fmt.Errorf("order %s: chunk.songs must be > 0 (got %d)", strategy.Name(), cfg.Chunk.Songs)
	}
	return strategy, cfg, nil
}

// Build fills win with the first chunk of the catalog and resets its cursor.
// An empty catalog builds an empty window.
func (f *Feeder) Build(ctx context.Context, q Query, win playlist.Window) (Result, error) {
	strategy, cfg, err := f.resolve(q)
	if err != nil {
		return Result{}, err
	}

	start := cursor.Cursor{}
	chunk, err := f.fetcher.Fetch(ctx, strategy, cfg, start, order.Forward, q.Filters())
	if err != nil {
		f.logger.Error().Err(err).Str("order", strategy.Name()).Msg("Build failed")
		return Result{}, fmt.Errorf("build: %w", err)
	}

	songs := forwardSongs(strategy, chunk, start, cfg.Chunk.Songs)
	win.Create(songs, cursor.New(chunk.TotalNumOfAlbums, chunk.SongsInFirstAlbum))
	resync(win)

	f.logger.Info().
		Str("order", strategy.Name()).
		Int("songs", len(songs)).
		Int("total_albums", chunk.TotalNumOfAlbums).
		Msg("Playlist built")

	return Result{Total: chunk.TotalNumOfAlbums}, nil
}

// Next moves the play pointer one song forward, fetching when the window
// ends. In loop mode the catalog end wraps to the first album.
func (f *Feeder) Next(ctx context.Context, q Query, win playlist.Window) (err error) {
	strategy, cfg, err := f.resolve(q)
	if err != nil {
		return err
	}

	snap := takeSnapshot(win)
	defer func() {
		if err != nil {
			snap.restore(win)
		}
	}()

	cur := win.Cursor()
	wrap := false
	if strategy.HasNext(win) {
		strategy.MoveToNext(cur)
		if win.HasNextSong() {
			win.Next()
			resync(win)
			return nil
		}
	} else {
		if !win.IsLoop() || cur.Total.Albums == 0 {
			return ErrNoNextSong
		}
		wrap = true
	}

	var (
		chunk *Chunk
		songs []catalog.Song
	)
	for {
		if wrap {
			cur.Current = cursor.Position{}
			f.logger.Debug().Msg("Wrapping to the first album")
		}
		chunk, songs, err = f.fetchPast(ctx, strategy, cfg, cur, order.Forward, q.Filters())
		if err != nil {
			f.logger.Error().Err(err).Int("album", cur.Current.Album).Msg("Next failed")
			return fmt.Errorf("next: %w", err)
		}
		if len(songs) > 0 {
			break
		}
		// the catalog ended before Total.Albums said it would
		if wrap || !win.IsLoop() {
			return ErrNoNextSong
		}
		wrap = true
	}

	evicted := mergeForward(win, songs, cfg.Chunk.Songs)
	evictedSongs.WithLabelValues(order.Forward.String()).Add(float64(evicted))
	strategy.UpdateTotal(cur, chunk.SongsInFirstAlbum, chunk.TotalNumOfAlbums)

	win.Next()
	resync(win)

	f.logger.Info().
		Int("album", cur.Current.Album).
		Int("added", len(songs)).
		Int("evicted", evicted).
		Msg("Chunk merged forward")
	return nil
}

// Previous moves the play pointer one song back, fetching when the window
// starts. In loop mode the catalog start wraps to the last album.
func (f *Feeder) Previous(ctx context.Context, q Query, win playlist.Window) (err error) {
	strategy, cfg, err := f.resolve(q)
	if err != nil {
		return err
	}

	snap := takeSnapshot(win)
	defer func() {
		if err != nil {
			snap.restore(win)
		}
	}()

	cur := win.Cursor()
	wrap := false
	if strategy.HasPrevious(win) {
		strategy.MoveToPrevious(cur)
		if win.HasPreviousSong() {
			win.Previous()
			resync(win)
			return nil
		}
	} else {
		if !win.IsLoop() || cur.Total.Albums == 0 {
			return ErrNoPreviousSong
		}
		wrap = true
	}

	var (
		chunk *Chunk
		songs []catalog.Song
	)
	for {
		if wrap {
			cur.Current = cursor.Position{Album: cur.Total.Albums - 1, Song: cursor.Unknown}
			f.logger.Debug().Msg("Wrapping to the last album")
		}
		chunk, songs, err = f.fetchPast(ctx, strategy, cfg, cur, order.Backward, q.Filters())
		if err != nil {
			f.logger.Error().Err(err).Int("album", cur.Current.Album).Msg("Previous failed")
			return fmt.Errorf("previous: %w", err)
		}
		if len(songs) > 0 {
			break
		}
		if wrap || !win.IsLoop() {
			return ErrNoPreviousSong
		}
		wrap = true
	}

	evicted := mergeBackward(win, songs, cfg.Chunk.Songs)
	evictedSongs.WithLabelValues(order.Backward.String()).Add(float64(evicted))
	strategy.UpdateTotal(cur, chunk.NumOfSongsInLastAlbum, chunk.TotalNumOfAlbums)

	win.Previous()
	resync(win)

	f.logger.Info().
		Int("album", cur.Current.Album).
		Int("added", len(songs)).
		Int("evicted", evicted).
		Msg("Chunk merged backward")
	return nil
}

// fetchPast fetches the page at cur in dir and returns the songs that follow
// (or precede) the cursor. While a page lost every album to failed detail
// fetches, cur moves past that page and the next one is fetched, at most
// MaxSkippedPages times. No songs means the catalog edge was reached.
func (f *Feeder) fetchPast(ctx context.Context, strategy order.Strategy, cfg config.FeederConfig, cur *cursor.Cursor, dir order.Direction, filters map[string]string) (*Chunk, []catalog.Song, error) {
	for skipped := 0; ; skipped++ {
		page := strategy.Page(*cur, cfg, dir)
		chunk, err := f.fetcher.Fetch(ctx, strategy, cfg, *cur, dir, filters)
		if err != nil {
			return nil, nil, err
		}

		var songs []catalog.Song
		if dir == order.Forward {
			songs = forwardSongs(strategy, chunk, *cur, cfg.Chunk.Songs)
		} else {
			strategy.ClampSongPosition(cur, chunk.NumOfSongsInLastAlbum-1)
			songs = backwardSongs(strategy, chunk, *cur, cfg.Chunk.Songs)
		}
		if len(songs) > 0 || chunk.DroppedAlbums == 0 {
			return chunk, songs, nil
		}

		var next cursor.Position
		if dir == order.Forward {
			next = cursor.Position{Album: page.Offset + page.Limit}
			if next.Album >= cur.Total.Albums {
				return chunk, nil, nil
			}
		} else {
			if page.Offset == 0 {
				return chunk, nil, nil
			}
			next = cursor.Position{Album: page.Offset - 1, Song: cursor.Unknown}
		}

		if skipped >= MaxSkippedPages {
			return nil, nil, fmt.Errorf("%w (offset %d, %d pages)", ErrAlbumsUnreachable, page.Offset, skipped+1)
		}

		skippedPages.WithLabelValues(dir.String()).Inc()
		f.logger.Warn().
			Str("direction", dir.String()).
			Int("offset", page.Offset).
			Int("albums", chunk.DroppedAlbums).
			Int("next_album", next.Album).
			Msg("Every album of the page dropped, skipping it")
		cur.Current = next
	}
}

// HasNext reports whether songs remain after the play pointer. Next can still
// fail with a catalog error. In loop mode it is true for any non-empty window.
func (f *Feeder) HasNext(q Query, win playlist.Window) (bool, error) {
	if win.IsLoop() {
		return len(win.Items()) > 0, nil
	}
	strategy, _, err := f.resolve(q)
	if err != nil {
		return false, err
	}
	return strategy.HasNext(win), nil
}

// HasPrevious reports whether songs remain before the play pointer. In loop
// mode it is true for any non-empty window.
func (f *Feeder) HasPrevious(q Query, win playlist.Window) (bool, error) {
	if win.IsLoop() {
		return len(win.Items()) > 0, nil
	}
	strategy, _, err := f.resolve(q)
	if err != nil {
		return false, err
	}
	return strategy.HasPrevious(win), nil
}
