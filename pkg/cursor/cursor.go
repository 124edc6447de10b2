// Package cursor holds the two-level position (album, song) that drives
// catalog pagination for a playlist window.
package cursor

import "math"

// Unknown marks a song offset whose album size is not known yet. It is set when
// moving backward into an album that has not been fetched and is clamped once
// the album arrives.
const Unknown = math.MaxInt32

// Position addresses a song in the remote catalog.
type Position struct {
	// Album is the index of the album in the remote sequence (not the window).
	Album int `json:"album"`

	// Song is the offset within the album's post-processed song order.
	Song int `json:"song"`
}

// Totals holds the last known sizes reported by the catalog.
type Totals struct {
	// Albums is the album count as of the last fetch.
	Albums int `json:"albums"`

	// Songs is the song count of the album the cursor is in.
	Songs int `json:"songs"`
}

// Cursor is the pagination state attached to a playlist.
type Cursor struct {
	Current Position `json:"current"`
	Total   Totals   `json:"total"`
}

// New returns a cursor at the first song of the first album.
func New(totalAlbums, songsInFirstAlbum int) Cursor {
	return Cursor{
		Total: Totals{
			Albums: totalAlbums,
			Songs:  songsInFirstAlbum,
		},
	}
}

// IsSongKnown reports whether Current.Song is a real offset.
func (c *Cursor) IsSongKnown() bool {
	return c.Current.Song != Unknown
}

// Clamp forces Current.Song into [0, maxIndex].
func (c *Cursor) Clamp(maxIndex int) {
	if maxIndex < 0 {
		maxIndex = 0
	}
	if c.Current.Song > maxIndex {
		c.Current.Song = maxIndex
	}
	if c.Current.Song < 0 {
		c.Current.Song = 0
	}
}

// AtStart reports whether the cursor points at the first song of the catalog.
func (c *Cursor) AtStart() bool {
	return c.Current.Album <= 0 && c.Current.Song <= 0
}

// AtEnd reports whether the cursor points at the last known song of the catalog.
func (c *Cursor) AtEnd() bool {
	return c.Current.Album >= c.Total.Albums-1 && c.Current.Song >= c.Total.Songs-1
}
