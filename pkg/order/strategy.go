// Package order provides the ordering strategies that map a cursor to catalog
// page requests and arrange fetched songs into traversal order.
package order

import (
	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/config"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
)

// Direction is the traversal direction a page is requested for.
type Direction int

const (
	// Forward requests the page starting at the cursor album.
	Forward Direction = iota
	// Backward requests the page ending at the cursor album.
	Backward
)

// String returns the direction label used in logs and metrics.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// View is the part of a playlist window a strategy inspects.
type View interface {
	Cursor() *cursor.Cursor
	HasNextSong() bool
	HasPreviousSong() bool
}

// Strategy is a pagination and ordering policy selected by order key.
//
// Strategies mutate the cursor in place and are called by one writer at a
// time; they hold no per-session state.
type Strategy interface {
	// Name returns the order key.
	Name() string

	// Page returns the listing request for cur in direction dir.
	Page(cur cursor.Cursor, cfg config.FeederConfig, dir Direction) catalog.ListParams

	// SongsPostProcessing arranges a freshly fetched song list into
	// traversal order. SongIndex reflects the returned order.
	SongsPostProcessing(songs []catalog.Song, cur cursor.Cursor) []catalog.Song

	HasNext(v View) bool
	HasPrevious(v View) bool

	// MoveToNext advances the cursor by one song.
	MoveToNext(cur *cursor.Cursor)

	// MoveToPrevious retreats the cursor by one song. Crossing an album
	// boundary leaves Current.Song at cursor.Unknown until clamped.
	MoveToPrevious(cur *cursor.Cursor)

	ClampSongPosition(cur *cursor.Cursor, maxIndex int)

	// UpdateTotal refreshes the totals after a chunk was merged.
	UpdateTotal(cur *cursor.Cursor, songsInEdgeAlbum, totalAlbums int)
}

// paged implements the cursor arithmetic shared by all strategies.
type paged struct {
	name string
	sort string
}

func (p paged) Name() string { return p.name }

func (p paged) Page(cur cursor.Cursor, cfg config.FeederConfig, dir Direction) catalog.ListParams {
	albums := cfg.Chunk.Albums
	if albums <= 0 {
		albums = 1
	}

	album := cur.Current.Album
	if album < 0 {
		album = 0
	}

	if dir == Backward {
		// the page ends at the cursor album
		first := album - albums + 1
		if first < 0 {
			first = 0
		}
		return catalog.ListParams{Offset: first, Limit: album - first + 1, Sort: p.sort}
	}

	return catalog.ListParams{Offset: album, Limit: albums, Sort: p.sort}
}

func (p paged) HasNext(v View) bool {
	return v.HasNextSong() || !v.Cursor().AtEnd()
}

func (p paged) HasPrevious(v View) bool {
	return v.HasPreviousSong() || !v.Cursor().AtStart()
}

func (p paged) MoveToNext(cur *cursor.Cursor) {
	if cur.IsSongKnown() && cur.Current.Song+1 < cur.Total.Songs {
		cur.Current.Song++
		return
	}
	cur.Current.Album++
	cur.Current.Song = 0
}

func (p paged) MoveToPrevious(cur *cursor.Cursor) {
	if cur.IsSongKnown() && cur.Current.Song > 0 {
		cur.Current.Song--
		return
	}
	cur.Current.Album--
	cur.Current.Song = cursor.Unknown
}

func (p paged) ClampSongPosition(cur *cursor.Cursor, maxIndex int) {
	cur.Clamp(maxIndex)
}

func (p paged) UpdateTotal(cur *cursor.Cursor, songsInEdgeAlbum, totalAlbums int) {
	cur.Total.Songs = songsInEdgeAlbum
	if totalAlbums > 0 {
		cur.Total.Albums = totalAlbums
	}
}
