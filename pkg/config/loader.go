package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FEEDER_CATALOG_URL.
const EnvPrefix = "FEEDER"

// Load reads the configuration. An empty path searches for
// catalog-feeder.{yaml,toml} in the working directory and $HOME/.config;
// a missing file is not an error. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("catalog-feeder")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.pretty", defaults.Log.Pretty)
	v.SetDefault("redis.addr", defaults.Redis.Addr)
	v.SetDefault("redis.password", defaults.Redis.Password)
	v.SetDefault("redis.db", defaults.Redis.DB)
	v.SetDefault("catalog.url", defaults.Catalog.URL)
	v.SetDefault("catalog.user_agent", defaults.Catalog.UserAgent)
	v.SetDefault("catalog.timeout", defaults.Catalog.Timeout)
	v.SetDefault("catalog.cache_stale_for", defaults.Catalog.CacheStaleFor)
	v.SetDefault("catalog.breaker_failures", defaults.Catalog.BreakerFailures)
	v.SetDefault("catalog.breaker_open_for", defaults.Catalog.BreakerOpenFor)
	v.SetDefault("catalog.detail_concurrency", defaults.Catalog.DetailConcurrency)
	v.SetDefault("session.ttl", defaults.Session.TTL)

	d := defaults.Orders[DefaultsKey]
	v.SetDefault("orders.defaults.chunk.songs", d.Chunk.Songs)
	v.SetDefault("orders.defaults.chunk.albums", d.Chunk.Albums)
}
