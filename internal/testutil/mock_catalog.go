// Package testutil provides a mock album catalog for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/go-chi/chi/v5"
)

// MockCatalog is a configurable catalog server. Albums are listed in the
// order they were added.
type MockCatalog struct {
	server *httptest.Server

	mu        sync.RWMutex
	albums    []catalog.Album
	failing   map[string]int
	hidden    map[string]int
	listError int
	remaining int
	resetIn   int
	maxAge    int

	// Tracking
	listRequests        int
	detailRequests      map[string]int
	conditionalRequests int
	lastQuery           map[string]string
}

// NewMockCatalog starts a mock catalog serving albums. The listing reports a
// healthy rate limit budget and responses are not cacheable until SetMaxAge.
func NewMockCatalog(albums ...catalog.Album) *MockCatalog {
	m := &MockCatalog{
		albums:         albums,
		failing:        make(map[string]int),
		hidden:         make(map[string]int),
		remaining:      100,
		resetIn:        60,
		detailRequests: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/albums", m.handleList)
	r.Get("/albums/{identifier}", m.handleDetails)
	m.server = httptest.NewServer(r)

	return m
}

// Albums builds albums named a0, a1, ... where album i has counts[i] songs
// named a<i>s<j>.
func Albums(counts ...int) []catalog.Album {
	out := make([]catalog.Album, len(counts))
	for i, n := range counts {
		id := fmt.Sprintf("a%d", i)
		album := catalog.Album{Identifier: id, Title: "Album " + id, Creator: "creator"}
		for j := 0; j < n; j++ {
			album.Songs = append(album.Songs, catalog.Song{
				Identifier: fmt.Sprintf("%ss%d", id, j),
				Title:      fmt.Sprintf("Song %d", j),
				Track:      j + 1,
			})
		}
		out[i] = album
	}
	return out
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// FailAlbum makes the details of identifier answer with status. A status of 0
// removes the failure.
func (m *MockCatalog) FailAlbum(identifier string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == 0 {
		delete(m.failing, identifier)
		return
	}
	m.failing[identifier] = status
}

// FailListing makes the listing answer with status. A status of 0 restores
// normal listings.
func (m *MockCatalog) FailListing(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listError = status
}

// SetRateLimit sets the rate limit headers sent with every response.
func (m *MockCatalog) SetRateLimit(remaining, resetIn int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = remaining
	m.resetIn = resetIn
}

// HideSongs serves identifier without songs for its next n detail requests.
func (m *MockCatalog) HideSongs(identifier string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden[identifier] = n
}

// SetMaxAge makes responses cacheable for seconds and enables ETags.
func (m *MockCatalog) SetMaxAge(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAge = seconds
}

// ListRequests returns the number of listing requests served.
func (m *MockCatalog) ListRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRequests
}

// DetailRequests returns the number of detail requests for identifier.
func (m *MockCatalog) DetailRequests(identifier string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detailRequests[identifier]
}

// ConditionalRequests returns the number of requests sent with If-None-Match.
func (m *MockCatalog) ConditionalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalRequests
}

// LastQuery returns the query parameters of the latest listing request.
func (m *MockCatalog) LastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.lastQuery))
	for k, v := range m.lastQuery {
		out[k] = v
	}
	return out
}

func (m *MockCatalog) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.Lock()
	m.listRequests++
	m.lastQuery = make(map[string]string, len(q))
	for k := range q {
		m.lastQuery[k] = q.Get(k)
	}
	status := m.listError
	m.mu.Unlock()

	if status != 0 {
		m.writeError(w, status)
		return
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || offset < 0 {
		m.writeError(w, http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	albums := m.filtered(q.Get("creator"))
	m.mu.RUnlock()

	page := catalog.AlbumPage{Items: []catalog.AlbumRef{}, Total: len(albums)}
	for i := offset; i < offset+limit && i < len(albums); i++ {
		page.Items = append(page.Items, catalog.AlbumRef{Identifier: albums[i].Identifier, Title: albums[i].Title})
	}
	m.writeJSON(w, r, page)
}

func (m *MockCatalog) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identifier")

	m.mu.Lock()
	m.detailRequests[id]++
	status := m.failing[id]
	hide := m.hidden[id] > 0
	if hide {
		m.hidden[id]--
	}
	m.mu.Unlock()

	if status != 0 {
		m.writeError(w, status)
		return
	}

	m.mu.RLock()
	var album *catalog.Album
	for i := range m.albums {
		if m.albums[i].Identifier == id {
			album = &m.albums[i]
			break
		}
	}
	m.mu.RUnlock()

	if album == nil {
		m.writeError(w, http.StatusNotFound)
		return
	}
	if hide {
		empty := *album
		empty.Songs = []catalog.Song{}
		album = &empty
	}
	m.writeJSON(w, r, album)
}

// filtered returns the albums matching creator. Callers hold m.mu.
func (m *MockCatalog) filtered(creator string) []catalog.Album {
	if creator == "" {
		return m.albums
	}
	var out []catalog.Album
	for _, a := range m.albums {
		if a.Creator == creator {
			out = append(out, a)
		}
	}
	return out
}

func (m *MockCatalog) writeHeaders(w http.ResponseWriter) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(m.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(m.resetIn))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if m.maxAge > 0 {
		w.Header().Set("Cache-Control", "max-age="+strconv.Itoa(m.maxAge))
		w.Header().Set("Expires", time.Now().Add(time.Duration(m.maxAge)*time.Second).Format(http.TimeFormat))
	}
}

func (m *MockCatalog) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		m.writeError(w, http.StatusInternalServerError)
		return
	}
	m.writeHeaders(w)

	m.mu.RLock()
	cacheable := m.maxAge > 0
	m.mu.RUnlock()

	if cacheable {
		h := fnv.New64a()
		h.Write(body)
		etag := fmt.Sprintf(`"%x"`, h.Sum64())
		w.Header().Set("ETag", etag)

		if inm := r.Header.Get("If-None-Match"); inm != "" {
			m.mu.Lock()
			m.conditionalRequests++
			m.mu.Unlock()
			if inm == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockCatalog) writeError(w http.ResponseWriter, status int) {
	m.writeHeaders(w)
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error": %q}`, http.StatusText(status))
}
