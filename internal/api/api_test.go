package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-feeder/internal/testutil"
	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/config"
	"github.com/Sternrassler/catalog-feeder/pkg/feeder"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/Sternrassler/catalog-feeder/pkg/session"
	"github.com/sony/gobreaker"
)

// fakeSessions answers every operation with err, or a fixed state.
type fakeSessions struct {
	err     error
	loop    *bool
	created map[string]string
}

func (f *fakeSessions) state(id string) (*session.State, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &session.State{Session: id, Size: 1, HasNext: true}, nil
}

func (f *fakeSessions) Create(_ context.Context, slots map[string]string, _ bool) (string, feeder.Result, error) {
	if f.err != nil {
		return "", feeder.Result{}, f.err
	}
	f.created = slots
	return "s1", feeder.Result{Total: 7}, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*session.State, error) { return f.state(id) }

func (f *fakeSessions) Next(_ context.Context, id string) (*session.State, error) {
	return f.state(id)
}

func (f *fakeSessions) Previous(_ context.Context, id string) (*session.State, error) {
	return f.state(id)
}

func (f *fakeSessions) SetLoop(_ context.Context, id string, loop bool) (*session.State, error) {
	f.loop = &loop
	return f.state(id)
}

func (f *fakeSessions) Delete(_ context.Context, _ string) error { return f.err }

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Create(t *testing.T) {
	fs := &fakeSessions{}
	rr := serve(NewRouter(fs), http.MethodPost, "/sessions", `{"slots":{"order":"popular","creator":"x"},"loop":true}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp createResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Session != "s1" || resp.Total != 7 {
		t.Errorf("response = %+v", resp)
	}
	if fs.created["order"] != "popular" || fs.created["creator"] != "x" {
		t.Errorf("slots = %v", fs.created)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("response has no request id")
	}
}

func TestRouter_CreateRejectsInvalidJSON(t *testing.T) {
	rr := serve(NewRouter(&fakeSessions{}), http.MethodPost, "/sessions", `{"slots":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRouter_SetLoop(t *testing.T) {
	fs := &fakeSessions{}
	h := NewRouter(fs)

	rr := serve(h, http.MethodPut, "/sessions/s1/loop", `{"loop":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if fs.loop == nil || !*fs.loop {
		t.Errorf("SetLoop called with %v, want true", fs.loop)
	}

	if rr := serve(h, http.MethodPut, "/sessions/s1/loop", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing loop: expected 400, got %d", rr.Code)
	}
}

func TestRouter_RequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sessions/s1", nil)
	req.Header.Set(RequestIDHeader, "rid-42")
	rr := httptest.NewRecorder()
	NewRouter(&fakeSessions{err: playlist.ErrSessionNotFound}).ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "rid-42" {
		t.Errorf("request id header = %q, want rid-42", got)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.RequestID != "rid-42" || resp.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown session", playlist.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"end of catalog", fmt.Errorf("next: %w", feeder.ErrNoNextSong), http.StatusConflict, "END_OF_CATALOG"},
		{"start of catalog", feeder.ErrNoPreviousSong, http.StatusConflict, "START_OF_CATALOG"},
		{"unknown order", fmt.Errorf("%w: shuffled", order.ErrUnknownOrder), http.StatusBadRequest, "UNKNOWN_ORDER"},
		{"rate limited", catalog.ErrRateLimited, http.StatusTooManyRequests, "CATALOG_RATE_LIMITED"},
		{"breaker open", fmt.Errorf("list albums: %w", gobreaker.ErrOpenState), http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "CATALOG_TIMEOUT"},
		{"empty albums", feeder.ErrExhaustedEmptyRetry, http.StatusBadGateway, "CATALOG_ERROR"},
		{"unreachable albums", fmt.Errorf("next: %w", feeder.ErrAlbumsUnreachable), http.StatusBadGateway, "CATALOG_ERROR"},
		{"catalog error", &catalog.CatalogError{StatusCode: 500, ErrorClass: catalog.ErrorClassServer}, http.StatusBadGateway, "CATALOG_ERROR"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(NewRouter(&fakeSessions{err: tt.err}), http.MethodPost, "/sessions/s1/next", "")
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := NewRouter(&fakeSessions{})

	if rr := serve(h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("health = %d %q", rr.Code, rr.Body.String())
	}
	rr := serve(h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Errorf("metrics = %d, body without go_goroutines", rr.Code)
	}
}

func TestRouter_Delete(t *testing.T) {
	if rr := serve(NewRouter(&fakeSessions{}), http.MethodDelete, "/sessions/s1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

// newStack wires the real feeder against a mock catalog.
func newStack(t *testing.T, m *testutil.MockCatalog, songs, albums int) http.Handler {
	t.Helper()

	ccfg := catalog.DefaultConfig(m.URL(), "api-test/1.0")
	ccfg.ListRetry = catalog.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}
	client, err := catalog.New(ccfg)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Orders[config.DefaultsKey] = config.FeederConfig{Chunk: config.ChunkConfig{Songs: songs, Albums: albums}}

	f := feeder.New(order.DefaultRegistry(), feeder.NewChunkFetcher(client), cfg)
	return NewRouter(session.NewManager(f, playlist.NewMemoryStore()))
}

func TestRouter_WalkCatalog(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.Albums(3, 2, 4)...)
	defer m.Close()
	srv := httptest.NewServer(newStack(t, m, 4, 2))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"slots":{"order":"natural"}}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created createResponse
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.Total != 3 {
		t.Fatalf("create = %d %+v", resp.StatusCode, created)
	}

	step := func(dir string) (int, *session.State) {
		resp, err := http.Post(srv.URL+"/sessions/"+created.Session+"/"+dir, "application/json", nil)
		if err != nil {
			t.Fatalf("%s: %v", dir, err)
		}
		defer resp.Body.Close()
		var st session.State
		_ = json.NewDecoder(resp.Body).Decode(&st)
		return resp.StatusCode, &st
	}

	want := []string{"a0s1", "a0s2", "a1s0", "a1s1", "a2s0", "a2s1", "a2s2", "a2s3"}
	for _, id := range want {
		status, st := step("next")
		if status != http.StatusOK || st.Song == nil || st.Song.Identifier != id {
			t.Fatalf("next = %d %+v, want %s", status, st.Song, id)
		}
	}
	if status, _ := step("next"); status != http.StatusConflict {
		t.Errorf("next at end = %d, want 409", status)
	}

	for i := len(want) - 2; i >= 0; i-- {
		status, st := step("previous")
		if status != http.StatusOK || st.Song.Identifier != want[i] {
			t.Fatalf("previous = %d %+v, want %s", status, st.Song, want[i])
		}
	}
	if _, st := step("previous"); st.Song.Identifier != "a0s0" || st.HasPrevious {
		t.Errorf("first song = %+v, has previous %v", st.Song, st.HasPrevious)
	}
}

func TestRouter_CatalogDown(t *testing.T) {
	m := testutil.NewMockCatalog(testutil.Albums(1)...)
	defer m.Close()
	m.FailListing(http.StatusBadGateway)

	rr := serve(newStack(t, m, 4, 2), http.MethodPost, "/sessions", `{}`)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
}
