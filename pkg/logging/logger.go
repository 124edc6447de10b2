// Package logging configures zerolog for the catalog feeder and derives the
// component loggers used across packages.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel names the minimum level written, as configured under log.level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config describes the process-wide logger.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output receives the log lines. Nil means stderr.
	Output io.Writer
}

// DefaultConfig writes JSON lines at info level to stderr. Commands start
// from it and override what log.* sets.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Setup installs cfg as the global zerolog logger, so that loggers derived
// later with NewLogger share its output and level, and returns it.
func Setup(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// parseLevel accepts zerolog's level names and "warning". Anything else,
// including an empty level, logs at info.
func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = string(LevelWarn)
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// Component names attached to log lines as the "component" field.
const (
	ComponentFeeder        = "feeder"
	ComponentChunkFetcher  = "chunk-fetcher"
	ComponentCatalogClient = "catalog-client"
	ComponentRateLimit     = "rate-limit"
	ComponentSession       = "session"
	ComponentAPI           = "api"
)

// NewLogger derives a logger from the global one that tags every line with
// component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cursor moves inside the window (no fetch)
//   - Cache hits and conditional requests
//   - Chunk contents (offset, albums, songs)
//
// Info: Normal operation events
//   - Playlist built, session created
//   - Chunk merged (direction, added, evicted)
//   - Server startup/shutdown
//
// Warn: Conditions that don't fail the operation
//   - Album dropped after failed detail fetch
//   - Albums without songs, chunk fetched again
//   - Retry attempts, rate limit throttling
//   - Cache errors (fallback to direct request)
//
// Error: Failed operations
//   - Listing failed after retries (Build, Next, Previous)
//   - Empty-song retries exhausted
//   - Critical rate limit blocks
//
// Context Fields:
//   - component: emitting component (see constants above)
//   - session: session id
//   - order: order key of the playlist
//   - album, offset: remote album index / page offset
//   - added, evicted: songs merged into / evicted from the window
//   - endpoint, status, error_class: catalog request details
