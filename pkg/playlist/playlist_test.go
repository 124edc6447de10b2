package playlist

import (
	"testing"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
)

func songs(ids ...string) []catalog.Song {
	out := make([]catalog.Song, len(ids))
	for i, id := range ids {
		out[i] = catalog.Song{Identifier: id}
	}
	return out
}

func TestPlaylist_Navigation(t *testing.T) {
	p := New("s1", nil, false)
	p.Create(songs("a", "b", "c"), cursor.New(4, 3))

	if p.HasPreviousSong() {
		t.Error("HasPreviousSong() = true at start")
	}
	if !p.HasNextSong() {
		t.Error("HasNextSong() = false at start")
	}

	p.Next()
	p.Next()
	if got, _ := p.Current(); got.Identifier != "c" {
		t.Errorf("Current() = %q, want c", got.Identifier)
	}
	if p.HasNextSong() {
		t.Error("HasNextSong() = true at end")
	}

	// Next at the end is a no-op
	p.Next()
	if p.Position() != 2 {
		t.Errorf("Position() = %d, want 2", p.Position())
	}

	p.Previous()
	if p.Position() != 1 {
		t.Errorf("Position() = %d, want 1", p.Position())
	}
}

func TestPlaylist_Shift(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		items  int
		offset int
		want   int
	}{
		{name: "backward", start: 2, items: 5, offset: -2, want: 0},
		{name: "forward", start: 0, items: 5, offset: 2, want: 2},
		{name: "before window", start: 1, items: 3, offset: -2, want: -1},
		{name: "after window", start: 0, items: 3, offset: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("s", nil, false)
			p.Songs = make([]catalog.Song, tt.items)
			p.Pos = tt.start

			p.Shift(tt.offset)
			if p.Position() != tt.want {
				t.Errorf("Position() = %d, want %d", p.Position(), tt.want)
			}
		})
	}
}

func TestPlaylist_PointerReentersWindow(t *testing.T) {
	p := New("s", nil, false)
	p.Create(songs("d", "e", "f"), cursor.Cursor{})

	p.Shift(-1)
	if _, ok := p.Current(); ok {
		t.Fatal("Current() ok with pointer before window")
	}
	p.Next()
	if got, _ := p.Current(); got.Identifier != "d" {
		t.Errorf("after Next Current() = %q, want d", got.Identifier)
	}

	p.Shift(3)
	p.Previous()
	if got, _ := p.Current(); got.Identifier != "f" {
		t.Errorf("after Previous Current() = %q, want f", got.Identifier)
	}
}

func TestPlaylist_EmptyWindow(t *testing.T) {
	p := New("s", nil, true)
	p.Create(nil, cursor.Cursor{})

	if _, ok := p.Current(); ok {
		t.Error("Current() ok on empty window")
	}
	if p.HasNextSong() || p.HasPreviousSong() {
		t.Error("empty window reports neighbours")
	}
	if !p.IsLoop() {
		t.Error("IsLoop() = false, want true")
	}
}

func TestPlaylist_Clone(t *testing.T) {
	p := New("s", map[string]string{"order": "natural"}, false)
	p.Create(songs("a", "b"), cursor.New(1, 2))

	c := p.Clone()
	c.Songs[0].Identifier = "changed"
	c.Slots["order"] = "popular"
	c.Cursor().Current.Song = 1

	if p.Songs[0].Identifier != "a" || p.Slots["order"] != "natural" || p.Cur.Current.Song != 0 {
		t.Error("Clone() shares state with the original")
	}
}
