package feeder

import (
	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/samber/lo"
)

// forwardSongs orders a forward chunk, drops the songs before the cursor and
// keeps at most capacity songs from the front.
func forwardSongs(strategy order.Strategy, chunk *Chunk, cur cursor.Cursor, capacity int) []catalog.Song {
	songs := strategy.SongsPostProcessing(chunk.Songs, cur)
	songs = lo.Filter(songs, func(s catalog.Song, _ int) bool {
		return !before(s, cur.Current)
	})
	if len(songs) > capacity {
		songs = songs[:capacity]
	}
	return songs
}

// backwardSongs orders a backward chunk, drops the songs after the cursor and
// keeps at most capacity songs from the back. The cursor must be clamped.
func backwardSongs(strategy order.Strategy, chunk *Chunk, cur cursor.Cursor, capacity int) []catalog.Song {
	songs := strategy.SongsPostProcessing(chunk.Songs, cur)
	songs = lo.Filter(songs, func(s catalog.Song, _ int) bool {
		return !after(s, cur.Current)
	})
	if len(songs) > capacity {
		songs = songs[len(songs)-capacity:]
	}
	return songs
}

// mergeForward appends songs, evicts from the front down to capacity and
// shifts the pointer by the evicted count. It returns the evicted count.
func mergeForward(win playlist.Window, songs []catalog.Song, capacity int) int {
	items := make([]catalog.Song, 0, len(win.Items())+len(songs))
	items = append(items, win.Items()...)
	items = append(items, songs...)

	evicted := 0
	if over := len(items) - capacity; over > 0 {
		items = items[over:]
		evicted = over
	}

	win.SetItems(items)
	win.Shift(-evicted)
	return evicted
}

// mergeBackward prepends songs, evicts from the end down to capacity and
// shifts the pointer by the prepended count. It returns the evicted count.
func mergeBackward(win playlist.Window, songs []catalog.Song, capacity int) int {
	items := make([]catalog.Song, 0, len(win.Items())+len(songs))
	items = append(items, songs...)
	items = append(items, win.Items()...)

	evicted := 0
	if over := len(items) - capacity; over > 0 {
		items = items[:capacity]
		evicted = over
	}

	win.SetItems(items)
	win.Shift(len(songs))
	return evicted
}

func before(s catalog.Song, p cursor.Position) bool {
	return s.AlbumIndex < p.Album || (s.AlbumIndex == p.Album && s.SongIndex < p.Song)
}

func after(s catalog.Song, p cursor.Position) bool {
	return s.AlbumIndex > p.Album || (s.AlbumIndex == p.Album && s.SongIndex > p.Song)
}

// resync points the cursor at the song under the play pointer.
func resync(win playlist.Window) {
	song, ok := win.Current()
	if !ok {
		return
	}
	cur := win.Cursor()
	cur.Current = cursor.Position{Album: song.AlbumIndex, Song: song.SongIndex}
	if song.AlbumSongs > 0 {
		cur.Total.Songs = song.AlbumSongs
	}
}

// snapshot is the window state restored when an operation fails.
type snapshot struct {
	items []catalog.Song
	pos   int
	cur   cursor.Cursor
}

func takeSnapshot(win playlist.Window) snapshot {
	return snapshot{
		items: append([]catalog.Song(nil), win.Items()...),
		pos:   win.Position(),
		cur:   *win.Cursor(),
	}
}

func (s snapshot) restore(win playlist.Window) {
	win.SetItems(s.items)
	win.Shift(s.pos - win.Position())
	*win.Cursor() = s.cur
}
