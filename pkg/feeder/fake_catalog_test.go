package feeder

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/config"
)

// fakeCatalog serves albums a0..aN whose songs are named a<album>s<song>.
type fakeCatalog struct {
	mu sync.Mutex

	albums  []catalog.Album
	failing map[string]bool
	listErr error

	// album details come back without songs for the first hideSongs listings
	hideSongs int

	listCalls  int
	lastParams catalog.ListParams

	// bypassed records per listing whether the cache was bypassed
	bypassed []bool
}

func newFakeCatalog(sizes ...int) *fakeCatalog {
	c := &fakeCatalog{failing: map[string]bool{}}
	for i, n := range sizes {
		id := fmt.Sprintf("a%d", i)
		album := catalog.Album{Identifier: id, Title: "Album " + id}
		for j := 0; j < n; j++ {
			album.Songs = append(album.Songs, catalog.Song{
				Identifier: fmt.Sprintf("%ss%d", id, j),
				AlbumID:    id,
			})
		}
		c.albums = append(c.albums, album)
	}
	return c
}

func (c *fakeCatalog) ListAlbums(ctx context.Context, params catalog.ListParams) (*catalog.AlbumPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listCalls++
	c.bypassed = append(c.bypassed, catalog.CacheBypassed(ctx))
	c.lastParams = params
	if c.listErr != nil {
		return nil, c.listErr
	}
	if len(c.albums) == 0 {
		return nil, nil
	}

	page := &catalog.AlbumPage{Total: len(c.albums)}
	for i := params.Offset; i < params.Offset+params.Limit && i < len(c.albums); i++ {
		page.Items = append(page.Items, catalog.AlbumRef{Identifier: c.albums[i].Identifier})
	}
	return page, nil
}

func (c *fakeCatalog) FetchAlbumDetails(_ context.Context, identifier string, _ catalog.RetryConfig) (*catalog.Album, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failing[identifier] {
		return nil, fmt.Errorf("fetch album %s: %w", identifier, catalog.ErrRetryExhausted)
	}
	for _, a := range c.albums {
		if a.Identifier == identifier {
			out := a
			if c.listCalls <= c.hideSongs {
				out.Songs = nil
			} else {
				out.Songs = append([]catalog.Song(nil), a.Songs...)
			}
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrAlbumNotFound, identifier)
}

// shrink drops every album from index n on.
func (c *fakeCatalog) shrink(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.albums = c.albums[:n]
}

func (c *fakeCatalog) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls
}

// staticConfigs returns the same configuration for every order.
type staticConfigs config.FeederConfig

func (s staticConfigs) ForOrder(string) config.FeederConfig { return config.FeederConfig(s) }

func chunkConfig(songs, albums int) staticConfigs {
	return staticConfigs{Chunk: config.ChunkConfig{Songs: songs, Albums: albums}}
}
