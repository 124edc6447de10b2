package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/config"
	"github.com/Sternrassler/catalog-feeder/pkg/feeder"
	"github.com/Sternrassler/catalog-feeder/pkg/logging"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	redis  *redis.Client
	feeder *feeder.Feeder
	store  playlist.Store
}

// loadConfig reads and validates the configuration.
func loadConfig(params *rootParams, registry *order.Registry) (*config.Config, error) {
	cfg, err := config.Load(params.ConfigPath)
	if err != nil {
		return nil, err
	}
	if params.LogLevel != "" {
		cfg.Log.Level = params.LogLevel
	}
	if err := cfg.Validate(registry.Keys()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires redis (when configured), the catalog client and the feeder.
func newApp(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*app, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = logging.LogLevel(cfg.Log.Level)
	}
	logCfg.Pretty = cfg.Log.Pretty
	if logOutput != nil {
		logCfg.Output = logOutput
	}
	logger := logging.Setup(logCfg)

	a := &app{cfg: cfg, logger: logger}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		a.store = playlist.NewRedisStore(a.redis, cfg.Session.TTL)
	} else {
		logger.Warn().Msg("No redis configured, sessions are kept in memory and responses are not cached")
		a.store = playlist.NewMemoryStore()
	}

	ccfg := catalog.DefaultConfig(cfg.Catalog.URL, cfg.Catalog.UserAgent)
	ccfg.Timeout = cfg.Catalog.Timeout
	ccfg.CacheStaleFor = cfg.Catalog.CacheStaleFor
	ccfg.Redis = a.redis

	breaker := catalog.NewBreaker("catalog-listing", cfg.Catalog.BreakerFailures, cfg.Catalog.BreakerOpenFor, logger)
	client, err := catalog.New(ccfg, catalog.WithCircuitBreaker(breaker))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	a.feeder = feeder.New(order.DefaultRegistry(), feeder.NewChunkFetcher(client, feeder.WithDetailConcurrency(cfg.Catalog.DetailConcurrency)), cfg)
	return a, nil
}

// Close releases the redis connection.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}
