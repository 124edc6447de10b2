package catalog

import (
	"net/url"
	"sort"
	"strconv"
)

// Song is a single playable item of an album.
type Song struct {
	Identifier string  `json:"identifier"`
	Title      string  `json:"title"`
	Creator    string  `json:"creator,omitempty"`
	Track      int     `json:"track,omitempty"`
	Duration   float64 `json:"duration,omitempty"` // seconds
	URL        string  `json:"url,omitempty"`
	AlbumID    string  `json:"album_id"`
	AlbumTitle string  `json:"album_title,omitempty"`

	// Coordinates in the remote sequence, assigned when the song is fetched.
	AlbumIndex int `json:"album_index"`
	SongIndex  int `json:"song_index"`
	AlbumSongs int `json:"album_songs"`
}

// AlbumRef is an entry of an album listing page.
type AlbumRef struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title,omitempty"`
}

// AlbumPage is one page of the album listing.
type AlbumPage struct {
	Items []AlbumRef `json:"items"`
	Total int        `json:"total"`
}

// Album is the detailed view of an album including its songs.
type Album struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Creator    string `json:"creator,omitempty"`
	Songs      []Song `json:"songs"`
}

// ListParams describes a listing page request.
type ListParams struct {
	Offset int
	Limit  int
	// Sort is the catalog sort expression, e.g. "identifier" or "-downloads".
	Sort string
	// Filters are passed through as query parameters.
	Filters map[string]string
}

// Values encodes the params as query parameters.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(p.Offset))
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// paging keys are owned by the strategy
		if k == "offset" || k == "limit" || k == "sort" {
			continue
		}
		v.Set(k, p.Filters[k])
	}
	return v
}
