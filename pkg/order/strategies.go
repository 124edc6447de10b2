package order

import (
	"hash/fnv"
	"math/rand"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
	"github.com/samber/lo"
)

// Order keys.
const (
	Natural = "natural"
	Popular = "popular"
	Shuffle = "shuffle"
)

// Default is used when a query has no order slot.
const Default = Natural

// natural traverses albums in catalog identifier order.
type natural struct{ paged }

func newNatural() Strategy {
	return natural{paged{name: Natural, sort: "identifier"}}
}

func (natural) SongsPostProcessing(songs []catalog.Song, _ cursor.Cursor) []catalog.Song {
	return songs
}

// popular traverses the most downloaded albums first.
type popular struct{ paged }

func newPopular() Strategy {
	return popular{paged{name: Popular, sort: "-downloads"}}
}

func (popular) SongsPostProcessing(songs []catalog.Song, _ cursor.Cursor) []catalog.Song {
	return songs
}

// shuffle keeps the catalog album order and shuffles songs within each album.
// The permutation is seeded by the album identifier so a re-fetched album
// comes back in the same order and cursor offsets stay valid.
type shuffle struct{ paged }

func newShuffle() Strategy {
	return shuffle{paged{name: Shuffle, sort: "identifier"}}
}

func (shuffle) SongsPostProcessing(songs []catalog.Song, _ cursor.Cursor) []catalog.Song {
	albums := lo.PartitionBy(songs, func(s catalog.Song) int {
		return s.AlbumIndex
	})

	for _, album := range albums {
		rng := rand.New(rand.NewSource(albumSeed(album[0].AlbumID)))
		rng.Shuffle(len(album), func(i, j int) {
			album[i], album[j] = album[j], album[i]
		})
		for i := range album {
			album[i].SongIndex = i
		}
	}

	return lo.Flatten(albums)
}

func albumSeed(albumID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(albumID))
	return int64(h.Sum64())
}
