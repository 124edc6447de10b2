package catalog

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// NewBreaker returns a circuit breaker for album listings. It opens after
// consecutiveFailures failed listings in a row and probes again after timeout.
func NewBreaker(name string, consecutiveFailures uint32, timeout time.Duration, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	if consecutiveFailures == 0 {
		consecutiveFailures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				catalogBreakerState.Set(1)
			} else {
				catalogBreakerState.Set(0)
			}
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Catalog circuit breaker state changed")
		},
	})
}
