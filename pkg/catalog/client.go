// Package catalog provides the HTTP client for the remote album catalog:
// paginated album listings and per-album details, with retry, response
// caching, rate limiting and a circuit breaker around listings.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-feeder/pkg/cache"
	"github.com/Sternrassler/catalog-feeder/pkg/logging"
	"github.com/Sternrassler/catalog-feeder/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	albumsEndpoint = "/albums"
	maxBodyBytes   = 4 << 20
)

// Client talks to the album catalog.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	cache       *cache.Manager
	rateLimiter *ratelimit.Tracker
	breaker     *gobreaker.CircuitBreaker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog API, e.g. "https://catalog.example.org/v1"
	BaseURL string

	// UserAgent sent with every request
	UserAgent string

	// Timeout per HTTP request
	Timeout time.Duration

	// Redis enables the response cache and rate limit tracking. Optional.
	Redis *redis.Client

	// CacheStaleFor keeps expired entries around for revalidation
	CacheStaleFor time.Duration

	// ListRetry is the retry policy for album listings
	ListRetry RetryConfig
}

// DefaultConfig returns a configuration with safe defaults.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:       baseURL,
		UserAgent:     userAgent,
		Timeout:       10 * time.Second,
		CacheStaleFor: 10 * time.Minute,
		ListRetry:     DefaultRetryConfig(),
	}
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCircuitBreaker guards album listings with cb.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// New creates a catalog client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ListRetry.MaxAttempts <= 0 {
		cfg.ListRetry = DefaultRetryConfig()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logging.NewLogger(logging.ComponentCatalogClient),
	}
	for _, o := range opts {
		o(c)
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheStaleFor)
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logging.NewLogger(logging.ComponentRateLimit))
	}

	return c, nil
}

// ListAlbums requests one page of albums. A nil page without error means the
// catalog had no result for the request.
func (c *Client) ListAlbums(ctx context.Context, params ListParams) (*AlbumPage, error) {
	query := params.Values()

	fetch := func() (interface{}, error) {
		body, status, err := c.get(ctx, albumsEndpoint, query, c.config.ListRetry)
		if err != nil {
			return nil, err
		}

		trimmed := bytes.TrimSpace(body)
		if status == http.StatusNoContent || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return (*AlbumPage)(nil), nil
		}

		var page AlbumPage
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("decode album page: %w", err)
		}
		return &page, nil
	}

	var (
		result interface{}
		err    error
	)
	if c.breaker != nil {
		result, err = c.breaker.Execute(fetch)
	} else {
		result, err = fetch()
	}
	if err != nil {
		return nil, fmt.Errorf("list albums (offset %d, limit %d): %w", params.Offset, params.Limit, err)
	}

	page, _ := result.(*AlbumPage)
	if page != nil {
		c.logger.Debug().
			Int("offset", params.Offset).
			Int("items", len(page.Items)).
			Int("total", page.Total).
			Msg("Album page received")
	}
	return page, nil
}

// FetchAlbumDetails fetches an album with its songs using the given retry
// policy. Once retries are exhausted the error wraps ErrRetryExhausted.
func (c *Client) FetchAlbumDetails(ctx context.Context, identifier string, retry RetryConfig) (*Album, error) {
	if identifier == "" {
		return nil, fmt.Errorf("album identifier is required")
	}

	endpoint := albumsEndpoint + "/" + url.PathEscape(identifier)
	body, _, err := c.get(ctx, endpoint, nil, retry)
	if err != nil {
		var ce *CatalogError
		if errors.As(err, &ce) && ce.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrAlbumNotFound, identifier)
		}
		return nil, fmt.Errorf("fetch album %s: %w", identifier, err)
	}

	var album Album
	if err := json.Unmarshal(body, &album); err != nil {
		return nil, fmt.Errorf("decode album %s: %w", identifier, err)
	}
	if album.Identifier == "" {
		album.Identifier = identifier
	}
	for i := range album.Songs {
		s := &album.Songs[i]
		if s.AlbumID == "" {
			s.AlbumID = album.Identifier
		}
		if s.AlbumTitle == "" {
			s.AlbumTitle = album.Title
		}
		if s.Creator == "" {
			s.Creator = album.Creator
		}
	}

	return &album, nil
}

type noCacheKey struct{}

// WithoutCache returns a context under which requests bypass cached responses
// and reach the catalog. The fresh responses still replace the cached ones.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

// CacheBypassed reports whether ctx comes from WithoutCache.
func CacheBypassed(ctx context.Context) bool {
	bypass, _ := ctx.Value(noCacheKey{}).(bool)
	return bypass
}

// get performs a GET with rate limiting, caching and retry. It returns the
// body and the status code of the response that produced it.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, retry RetryConfig) ([]byte, int, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(endpointLabel(endpoint)).Observe(time.Since(startTime).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			catalogRequestsTotal.WithLabelValues(endpointLabel(endpoint), "rate_limited").Inc()
			return nil, 0, ErrRateLimited
		}
	}

	key := cache.Key{Endpoint: endpoint, Query: query}
	var cached *cache.Entry
	if c.cache != nil && CacheBypassed(ctx) {
		c.logger.Debug().Str("endpoint", endpoint).Msg("Bypassing cache")
	} else if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving from cache")
			return entry.Data, entry.StatusCode, nil
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var (
		status int
		body   []byte
		header http.Header
	)
	err := retryWithBackoff(ctx, c.logger, retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return &CatalogError{ErrorClass: ErrorClassClient, Endpoint: endpoint, Message: "build request", Err: err}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if cache.ShouldRevalidate(cached) {
			cache.AddConditionalHeaders(req, cached)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			catalogRequestsTotal.WithLabelValues(endpointLabel(endpoint), "network_error").Inc()
			return err
		}
		defer resp.Body.Close()

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return fmt.Errorf("read response body: %w", err)
		}

		catalogRequestsTotal.WithLabelValues(endpointLabel(endpoint), strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Catalog request error")
			return &CatalogError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Endpoint:   endpoint,
				Message:    resp.Status,
			}
		}

		status, body, header = resp.StatusCode, b, resp.Header
		return nil
	}, classifyError)
	if err != nil {
		return nil, 0, err
	}

	if status == http.StatusNotModified {
		if cached == nil {
			return nil, 0, &CatalogError{StatusCode: status, ErrorClass: ErrorClassServer, Endpoint: endpoint, Message: "304 without cached entry"}
		}
		if err := c.cache.Refresh(ctx, key, cached, cache.ExpiresFrom(header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		return cached.Data, cached.StatusCode, nil
	}

	if status == http.StatusOK && c.cache != nil {
		if err := c.cache.Set(ctx, key, cache.NewEntry(status, header, body)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return body, status, nil
}

// endpointLabel keeps metric cardinality bounded: album details share a label.
func endpointLabel(endpoint string) string {
	if strings.HasPrefix(endpoint, albumsEndpoint+"/") {
		return albumsEndpoint + "/{identifier}"
	}
	return endpoint
}
