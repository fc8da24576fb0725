package resilience

import (
	"context"
	stderrors "errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by Execute when no token is available.
var ErrRateLimited = stderrors.New("rate limit exceeded")

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Name identifies the limiter in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// Rate is the number of calls allowed per second.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the bucket size.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// OnLimit is called whenever a call finds the bucket empty.
	OnLimit func(name string) `yaml:"-" mapstructure:"-"`
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:  name,
		Rate:  10,
		Burst: 20,
	}
}

// RateLimiter is a token bucket refilled continuously at Rate tokens per second.
type RateLimiter struct {
	cfg RateLimiterConfig

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{
		cfg:    cfg,
		tokens: float64(cfg.Burst),
		last:   time.Now(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	if rl.cfg.OnLimit != nil {
		rl.cfg.OnLimit(rl.cfg.Name)
	}
	return false
}

// Wait takes a token, blocking until one is available or ctx is done. The
// token is reserved up front, so concurrent waiters are served in order.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	delay := rl.reserve()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		rl.cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs fn if a token is available and returns ErrRateLimited otherwise.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// Tokens returns the number of tokens currently available. It is negative
// while waiters hold reservations.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	rl.tokens--
	if rl.tokens >= 0 {
		return 0
	}
	if rl.cfg.OnLimit != nil {
		rl.cfg.OnLimit(rl.cfg.Name)
	}
	return time.Duration(-rl.tokens / rl.cfg.Rate * float64(time.Second))
}

// cancel returns a reservation that was never used.
func (rl *RateLimiter) cancel() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens++
}

func (rl *RateLimiter) refill() {
	now := time.Now()
	rl.tokens += now.Sub(rl.last).Seconds() * rl.cfg.Rate
	rl.last = now
	if burst := float64(rl.cfg.Burst); rl.tokens > burst {
		rl.tokens = burst
	}
}
