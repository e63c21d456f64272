// Package gateway wraps calls to upstream market-data dependencies with a
// per-dependency circuit breaker, bounded retries with exponential backoff,
// and a hard call timeout. The valuation engine itself never talks to a
// dependency directly; everything goes through a Gateway.
package gateway

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
)

const (
	defaultCallTimeout     = 15 * time.Second
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 10 * time.Second
	defaultMaxAttempts     = 3

	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// Gateway guards a single named dependency.
type Gateway struct {
	name        string
	breaker     *Breaker
	callTimeout time.Duration
	maxAttempts int
	initial     time.Duration
	maxInterval time.Duration
	logger      arbor.ILogger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithCallTimeout bounds each individual attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.callTimeout = d }
}

// WithMaxAttempts bounds the total number of attempts per call.
func WithMaxAttempts(n int) Option {
	return func(g *Gateway) { g.maxAttempts = n }
}

// WithBackoffIntervals sets the initial and maximum retry delays.
func WithBackoffIntervals(initial, max time.Duration) Option {
	return func(g *Gateway) {
		g.initial = initial
		g.maxInterval = max
	}
}

// WithBreaker overrides the breaker thresholds.
func WithBreaker(failureThreshold int, resetTimeout time.Duration) Option {
	return func(g *Gateway) { g.breaker = NewBreaker(failureThreshold, resetTimeout) }
}

// WithLogger sets the logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// New creates a gateway for the named dependency.
func New(name string, opts ...Option) *Gateway {
	g := &Gateway{
		name:        name,
		breaker:     NewBreaker(defaultFailureThreshold, defaultResetTimeout),
		callTimeout: defaultCallTimeout,
		maxAttempts: defaultMaxAttempts,
		initial:     defaultInitialInterval,
		maxInterval: defaultMaxInterval,
		logger:      common.GetLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the dependency name.
func (g *Gateway) Name() string {
	return g.name
}

// State returns the breaker state for status reporting.
func (g *Gateway) State() BreakerState {
	return g.breaker.State()
}

// Do runs fn against the dependency. Each attempt gets its own timeout;
// transient failures are retried with exponential backoff up to the attempt
// limit, and every outcome feeds the breaker. When the breaker is open the
// call fails immediately with ErrCircuitOpen.
func (g *Gateway) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackoff(), uint64(g.maxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if !g.breaker.allow() {
			return backoff.Permanent(ErrCircuitOpen)
		}

		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			g.breaker.onSuccess()
			return nil
		}

		g.breaker.onFailure()
		g.logger.Warn().
			Str("dependency", g.name).
			Str("op", op).
			Int("attempt", attempt).
			Err(err).
			Msg("Dependency call failed")

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)

	if err != nil {
		g.logger.Error().
			Str("dependency", g.name).
			Str("op", op).
			Err(err).
			Msg("Dependency call exhausted")
	}
	return err
}

func (g *Gateway) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.initial
	b.MaxInterval = g.maxInterval
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return b
}

// DoWithResult is Do for calls that produce a value.
func DoWithResult[T any](ctx context.Context, g *Gateway, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := g.Do(ctx, op, func(ctx context.Context) error {
		var callErr error
		result, callErr = fn(ctx)
		return callErr
	})
	return result, err
}
