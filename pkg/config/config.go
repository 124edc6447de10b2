// Package config loads the catalog-feeder configuration.
package config

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultsKey is the orders entry every order key falls back to.
const DefaultsKey = "defaults"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Log     LogConfig               `mapstructure:"log"`
	Redis   RedisConfig             `mapstructure:"redis"`
	Catalog CatalogConfig           `mapstructure:"catalog"`
	Session SessionConfig           `mapstructure:"session"`
	Orders  map[string]FeederConfig `mapstructure:"orders"`
}

// ServerConfig contains the HTTP API settings
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// RedisConfig contains the redis connection. An empty Addr disables redis:
// sessions are kept in memory and catalog responses are not cached.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig contains remote catalog client settings
type CatalogConfig struct {
	URL             string        `mapstructure:"url"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheStaleFor   time.Duration `mapstructure:"cache_stale_for"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerOpenFor  time.Duration `mapstructure:"breaker_open_for"`

	// DetailConcurrency bounds parallel album detail fetches per chunk.
	DetailConcurrency int `mapstructure:"detail_concurrency"`
}

// SessionConfig contains session store settings
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// FeederConfig is the per-order feeder configuration.
type FeederConfig struct {
	Chunk ChunkConfig `mapstructure:"chunk"`
}

// ChunkConfig sizes the window and the catalog pages.
type ChunkConfig struct {
	// Songs is the window capacity.
	Songs int `mapstructure:"songs"`
	// Albums is the number of albums requested per catalog page.
	Albums int `mapstructure:"albums"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
		Catalog: CatalogConfig{
			UserAgent:       "catalog-feeder/1.0",
			Timeout:         10 * time.Second,
			CacheStaleFor:   10 * time.Minute,
			BreakerFailures: 5,
			BreakerOpenFor:  30 * time.Second,

			DetailConcurrency: 10,
		},
		Session: SessionConfig{TTL: 24 * time.Hour},
		Orders: map[string]FeederConfig{
			DefaultsKey: {Chunk: ChunkConfig{Songs: 20, Albums: 2}},
		},
	}
}

// ForOrder resolves the feeder configuration of an order key. Fields left
// unset for the key are taken from the defaults entry.
func (c *Config) ForOrder(key string) FeederConfig {
	resolved := c.Orders[DefaultsKey]
	specific, ok := c.Orders[key]
	if !ok || key == DefaultsKey {
		return resolved
	}
	if specific.Chunk.Songs > 0 {
		resolved.Chunk.Songs = specific.Chunk.Songs
	}
	if specific.Chunk.Albums > 0 {
		resolved.Chunk.Albums = specific.Chunk.Albums
	}
	return resolved
}

// Validate checks the configuration against the registered order keys.
func (c *Config) Validate(knownOrders []string) error {
	if c.Catalog.URL == "" {
		return fmt.Errorf("%w: catalog.url is required", ErrInvalidConfig)
	}
	if c.Catalog.UserAgent == "" {
		return fmt.Errorf("%w: catalog.user_agent is required", ErrInvalidConfig)
	}

	if _, ok := c.Orders[DefaultsKey]; !ok {
		return fmt.Errorf("%w: orders.%s is required", ErrInvalidConfig, DefaultsKey)
	}

	known := make(map[string]bool, len(knownOrders))
	for _, k := range knownOrders {
		known[k] = true
	}

	keys := make([]string, 0, len(c.Orders))
	for k := range c.Orders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key != DefaultsKey && !known[key] {
			return fmt.Errorf("%w: unknown order %q", ErrInvalidConfig, key)
		}
		resolved := c.ForOrder(key)
		if resolved.Chunk.Songs <= 0 {
			return fmt.Errorf("%w: orders.%s.chunk.songs must be > 0 (got %d)", ErrInvalidConfig, key, resolved.Chunk.Songs)
		}
		if resolved.Chunk.Albums <= 0 {
			return fmt.Errorf("%w: orders.%s.chunk.albums must be > 0 (got %d)", ErrInvalidConfig, key, resolved.Chunk.Albums)
		}
	}

	return nil
}
