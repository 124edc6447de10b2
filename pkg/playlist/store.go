package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no playlist is stored under an id.
var ErrSessionNotFound = errors.New("session not found")

// KeyPrefix prefixes playlist keys in redis.
const KeyPrefix = "catalog-feeder:session:"

// Store persists playlists by session id.
type Store interface {
	Load(ctx context.Context, id string) (*Playlist, error)
	Save(ctx context.Context, p *Playlist) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps playlists in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	playlists map[string]*Playlist
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{playlists: make(map[string]*Playlist)}
}

// Load returns a copy of the stored playlist.
func (s *MemoryStore) Load(_ context.Context, id string) (*Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return p.Clone(), nil
}

// Save stores a copy of p.
func (s *MemoryStore) Save(_ context.Context, p *Playlist) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("playlist id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[p.ID] = p.Clone()
	return nil
}

// Delete removes a playlist.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.playlists, id)
	return nil
}

// RedisStore keeps playlists as JSON in redis. Every save renews the TTL.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a redis-backed store. A ttl <= 0 keeps playlists
// until deleted.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Playlist, error) {
	data, err := s.redis.Get(ctx, KeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var p Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal playlist %s: %w", id, err)
	}
	return &p, nil
}

func (s *RedisStore) Save(ctx context.Context, p *Playlist) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("playlist id is required")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal playlist %s: %w", p.ID, err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, KeyPrefix+p.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.redis.Del(ctx, KeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}
