// Package resilience guards calls to external providers with a circuit breaker and a per-call deadline.
package resilience

import (
	"context"
	"errors"
	"time"

	"intel_server/pkg/logger"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Name        string
	Timeout     time.Duration // per-call deadline, zero disables it
	MaxRequests uint32        // allowed probes in half-open state
	Interval    time.Duration // closed-state counter reset
	OpenTimeout time.Duration // time spent open before probing
}

// DefaultBreakerConfig mirrors the settings used for provider APIs.
func DefaultBreakerConfig(name string, timeout time.Duration) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		Timeout:     timeout,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		OpenTimeout: 30 * time.Second,
	}
}

// Breaker combines a gobreaker circuit with a deadline applied to each call.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewBreaker creates a breaker that trips after more than five consecutive
// failures or a 60% failure ratio over at least ten requests.
func NewBreaker(cfg BreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), timeout: cfg.Timeout}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.cb.Name()
}

// IsOpen reports whether calls are currently rejected.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Do runs fn under the breaker with the configured deadline.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call runs fn under the breaker and returns its typed result.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn(ctx)
	}

	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn(callCtx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrCircuitOpen
		}
		if ctxErr := callCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return zero, errors.Join(err, ctxErr)
		}
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}
