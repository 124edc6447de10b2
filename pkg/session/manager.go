// Package session runs feeder operations against stored playlists. Operations
// on the same session are serialized; different sessions run in parallel.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/cursor"
	"github.com/Sternrassler/catalog-feeder/pkg/feeder"
	"github.com/Sternrassler/catalog-feeder/pkg/logging"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Feeder is the window feeder used by the manager.
type Feeder interface {
	Build(ctx context.Context, q feeder.Query, win playlist.Window) (feeder.Result, error)
	Next(ctx context.Context, q feeder.Query, win playlist.Window) error
	Previous(ctx context.Context, q feeder.Query, win playlist.Window) error
	HasNext(q feeder.Query, win playlist.Window) (bool, error)
	HasPrevious(q feeder.Query, win playlist.Window) (bool, error)
}

// State is the client view of a session.
type State struct {
	Session     string        `json:"session"`
	Song        *catalog.Song `json:"song,omitempty"`
	Position    int           `json:"position"`
	Size        int           `json:"size"`
	Loop        bool          `json:"loop"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
	Cursor      cursor.Cursor `json:"cursor"`
}

// Manager owns the session lifecycle.
type Manager struct {
	feeder Feeder
	store  playlist.Store
	locks  *keyedMutex
	logger zerolog.Logger
}

// NewManager creates a session manager.
func NewManager(f Feeder, store playlist.Store) *Manager {
	return &Manager{
		feeder: f,
		store:  store,
		locks:  newKeyedMutex(),
		logger: logging.NewLogger(logging.ComponentSession),
	}
}

// Create builds a playlist for slots and stores it under a new session id.
func (m *Manager) Create(ctx context.Context, slots map[string]string, loop bool) (string, feeder.Result, error) {
	id := uuid.NewString()
	p := playlist.New(id, slots, loop)

	result, err := m.feeder.Build(ctx, feeder.Query{Slots: slots}, p)
	if err != nil {
		return "", feeder.Result{}, err
	}
	if err := m.store.Save(ctx, p); err != nil {
		return "", feeder.Result{}, fmt.Errorf("save session: %w", err)
	}

	m.logger.Info().
		Str("session", id).
		Int("total_albums", result.Total).
		Int("songs", len(p.Items())).
		Msg("Session created")
	return id, result, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, id string) (*State, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	p, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.state(p)
}

// Next advances a session by one song.
func (m *Manager) Next(ctx context.Context, id string) (*State, error) {
	return m.step(ctx, id, m.feeder.Next)
}

// Previous moves a session back by one song.
func (m *Manager) Previous(ctx context.Context, id string) (*State, error) {
	return m.step(ctx, id, m.feeder.Previous)
}

func (m *Manager) step(ctx context.Context, id string, move func(context.Context, feeder.Query, playlist.Window) error) (*State, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	p, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := move(ctx, feeder.Query{Slots: p.Slots}, p); err != nil {
		return nil, err
	}

	p.Touch()
	if err := m.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.logger.Debug().
		Str("session", id).
		Int("album", p.Cur.Current.Album).
		Int("song", p.Cur.Current.Song).
		Msg("Session moved")
	return m.state(p)
}

// SetLoop switches loop mode of a session.
func (m *Manager) SetLoop(ctx context.Context, id string, loop bool) (*State, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	p, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	p.SetLoop(loop)
	p.Touch()
	if err := m.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return m.state(p)
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	return m.store.Delete(ctx, id)
}

func (m *Manager) state(p *playlist.Playlist) (*State, error) {
	q := feeder.Query{Slots: p.Slots}

	hasNext, err := m.feeder.HasNext(q, p)
	if err != nil {
		return nil, err
	}
	hasPrevious, err := m.feeder.HasPrevious(q, p)
	if err != nil {
		return nil, err
	}

	s := &State{
		Session:     p.ID,
		Position:    p.Position(),
		Size:        len(p.Items()),
		Loop:        p.IsLoop(),
		HasNext:     hasNext,
		HasPrevious: hasPrevious,
		Cursor:      p.Cur,
	}
	if song, ok := p.Current(); ok {
		s.Song = &song
	}
	return s, nil
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
