// Package circuitbreaker builds the breakers that guard calls to the
// remote storefront API.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type Options struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// IsSuccessful decides which errors count against the breaker.
	// nil counts every error.
	IsSuccessful func(err error) bool
}

func DefaultOptions() Options {
	return Options{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

func New[T any](name string, opts Options, log *slog.Logger) *gobreaker.CircuitBreaker[T] {
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = DefaultOptions().ConsecutiveFailures
	}
	threshold := opts.ConsecutiveFailures

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: opts.IsSuccessful,
	})
}
