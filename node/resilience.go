package node

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/resilience"
)

// ResilienceConfig bundles optional resilience policies for a unit. Nil
// fields are skipped; the zero value adds nothing.
type ResilienceConfig struct {
	// RateLimiter paces calls with a token bucket.
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	// CircuitBreaker fails fast after repeated backend failures.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// Retry retries retryable failures with exponential backoff.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.RateLimiter == nil && c.CircuitBreaker == nil && c.Retry == nil
}

// WithResilience applies the configured policies in the order
// RateLimiter, CircuitBreaker, Retry, Process. The limiter and breaker are
// created once per wrapped unit and shared by all of its calls. Resilience
// sentinels surface as AppErrors (RATE_LIMITED, SERVICE_UNAVAILABLE,
// TIMEOUT); errors from the unit itself pass through unchanged.
func WithResilience[I, O any](cfg ResilienceConfig) Middleware[I, O] {
	return func(inner Node[I, O]) Node[I, O] {
		if cfg.IsEmpty() {
			return inner
		}
		return &resilientNode[I, O]{inner: inner, policy: newPolicy(inner.Name(), cfg)}
	}
}

type resilientNode[I, O any] struct {
	inner  Node[I, O]
	policy *policy
}

func (r *resilientNode[I, O]) Name() string { return r.inner.Name() }

func (r *resilientNode[I, O]) Process(ctx context.Context, input I) (O, error) {
	return execute(ctx, r.policy, func() (O, error) {
		return r.inner.Process(ctx, input)
	})
}

// policy holds the primitives built from a ResilienceConfig.
type policy struct {
	name  string
	rl    *resilience.RateLimiter
	cb    *resilience.CircuitBreaker
	retry *resilience.RetryConfig
}

func newPolicy(name string, cfg ResilienceConfig) *policy {
	p := &policy{name: name, retry: cfg.Retry}
	if cfg.RateLimiter != nil {
		rl := *cfg.RateLimiter
		if rl.Name == "" {
			rl.Name = name
		}
		p.rl = resilience.NewRateLimiter(rl)
	}
	if cfg.CircuitBreaker != nil {
		cb := *cfg.CircuitBreaker
		if cb.Name == "" {
			cb.Name = name
		}
		p.cb = resilience.NewCircuitBreaker(cb)
	}
	return p
}

func execute[T any](ctx context.Context, p *policy, fn func() (T, error)) (T, error) {
	if p.rl != nil {
		if err := p.rl.Wait(ctx); err != nil {
			var zero T
			return zero, p.wrap(err)
		}
	}

	call := fn
	if p.retry != nil {
		cfg := *p.retry
		call = func() (T, error) {
			return resilience.Retry(ctx, cfg, fn)
		}
	}

	if p.cb == nil {
		return call()
	}

	var result T
	var callErr error
	cbErr := p.cb.Execute(func() error {
		result, callErr = call()
		return callErr
	})
	if cbErr != nil && callErr == nil {
		return result, p.wrap(cbErr)
	}
	return result, callErr
}

// wrap converts resilience sentinels and context errors into AppErrors.
func (p *policy) wrap(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	switch {
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.ServiceUnavailable(p.name).WithCause(err)
	case stderrors.Is(err, resilience.ErrRateLimited):
		return errors.RateLimited().WithCause(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(p.name).WithCause(err)
	default:
		return err
	}
}
