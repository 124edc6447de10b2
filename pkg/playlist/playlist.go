// Package playlist holds the bounded song window of a session together with
// its play position, loop flag, pagination cursor and the query that built it.
package playlist

import (
	"time"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
)

// Window is the view of a playlist the feeder works on.
type Window interface {
	Items() []catalog.Song
	SetItems(songs []catalog.Song)

	// Position is the index of the song under the play pointer.
	Position() int

	// Shift moves the play pointer by offset without changing the songs.
	// The pointer may end up one step outside the window until the next
	// Next or Previous call.
	Shift(offset int)

	Next()
	Previous()
	HasNextSong() bool
	HasPreviousSong() bool

	// Current returns the song under the play pointer.
	Current() (catalog.Song, bool)

	Cursor() *cursor.Cursor
	IsLoop() bool

	// Create replaces the window content and resets the play pointer.
	Create(songs []catalog.Song, cur cursor.Cursor)
}

// Playlist is the session aggregate. It implements Window.
type Playlist struct {
	ID        string            `json:"id"`
	Songs     []catalog.Song    `json:"songs"`
	Pos       int               `json:"position"`
	Loop      bool              `json:"loop"`
	Cur       cursor.Cursor     `json:"cursor"`
	Slots     map[string]string `json:"slots,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an empty playlist for a session.
func New(id string, slots map[string]string, loop bool) *Playlist {
	now := time.Now().UTC()
	return &Playlist{
		ID:        id,
		Loop:      loop,
		Slots:     slots,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Playlist) Items() []catalog.Song { return p.Songs }

func (p *Playlist) SetItems(songs []catalog.Song) {
	p.Songs = songs
}

func (p *Playlist) Position() int { return p.Pos }

func (p *Playlist) Shift(offset int) {
	p.Pos += offset
}

func (p *Playlist) Next() {
	if p.HasNextSong() {
		p.Pos++
	}
}

func (p *Playlist) Previous() {
	if p.HasPreviousSong() {
		p.Pos--
	}
}

func (p *Playlist) HasNextSong() bool {
	return p.Pos+1 < len(p.Songs)
}

func (p *Playlist) HasPreviousSong() bool {
	return p.Pos > 0 && p.Pos-1 < len(p.Songs)
}

func (p *Playlist) Current() (catalog.Song, bool) {
	if p.Pos < 0 || p.Pos >= len(p.Songs) {
		return catalog.Song{}, false
	}
	return p.Songs[p.Pos], true
}

func (p *Playlist) Cursor() *cursor.Cursor { return &p.Cur }

func (p *Playlist) IsLoop() bool { return p.Loop }

// SetLoop switches loop mode.
func (p *Playlist) SetLoop(loop bool) { p.Loop = loop }

func (p *Playlist) Create(songs []catalog.Song, cur cursor.Cursor) {
	p.Songs = songs
	p.Pos = 0
	p.Cur = cur
}

// Touch records a modification.
func (p *Playlist) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy.
func (p *Playlist) Clone() *Playlist {
	c := *p
	c.Songs = append([]catalog.Song(nil), p.Songs...)
	if p.Slots != nil {
		c.Slots = make(map[string]string, len(p.Slots))
		for k, v := range p.Slots {
			c.Slots[k] = v
		}
	}
	return &c
}
