// Package resilience wraps calls to external providers (email, media,
// payments) in circuit breakers.
package resilience

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
)

// ErrUnavailable is returned while a breaker is open or saturated.
var ErrUnavailable = errors.New("external service unavailable")

// Breaker wraps gobreaker with metrics and logging.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

// Settings tunes a breaker. Zero values fall back to the defaults below.
type Settings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func NewBreaker(name string, s Settings) *Breaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = 30 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && ratio >= s.FailureRatio
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))
			logger.Warn("Circuit breaker state changed", "circuit", cbName, "from", from.String(), "to", to.String())
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &Breaker{cb: cb, name: name}
}

// Name returns the breaker's name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state as a string (closed, open, half-open).
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(b.name).Inc()
	}
	return b.formatError(err)
}

// Call runs fn through b and returns its result.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (b *Breaker) formatError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("%w: circuit %s is open", ErrUnavailable, b.name)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: circuit %s is half-open and saturated", ErrUnavailable, b.name)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	}
	return 0
}
