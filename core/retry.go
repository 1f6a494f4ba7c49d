package core

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy decides whether and when a failed attempt is retried.
type BackoffPolicy interface {
	// NextDelay returns the wait before the next attempt and whether to retry.
	// attempt is the 1-based number of the attempt that just failed.
	// hint is a server-supplied Retry-After, zero when absent.
	NextDelay(attempt int, kind ErrorKind, hint time.Duration) (delay time.Duration, ok bool)
}

// BackoffConfig configures exponential backoff.
type BackoffConfig struct {
	MaxAttempts int           // Total attempts including the first (default: 4)
	BaseDelay   time.Duration // Delay after the first failed attempt (default: 1s)
	MaxDelay    time.Duration // Cap on the computed delay (default: 30s)
	Jitter      float64       // Additive jitter fraction 0.0-1.0; zero disables it
}

// DefaultBackoffConfig mirrors the remote service's historical client:
// four attempts, doubling from one second.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      0.25,
	}
}

// DefaultBackoffPolicy returns a policy built from DefaultBackoffConfig.
func DefaultBackoffPolicy() BackoffPolicy {
	return NewBackoffPolicy(DefaultBackoffConfig())
}

// NewBackoffPolicy creates an exponential backoff policy.
func NewBackoffPolicy(cfg BackoffConfig) BackoffPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.25
	}
	return &exponentialBackoff{cfg: cfg, rand: rand.Float64}
}

type exponentialBackoff struct {
	cfg  BackoffConfig
	rand func() float64
}

func (e *exponentialBackoff) NextDelay(attempt int, kind ErrorKind, hint time.Duration) (time.Duration, bool) {
	if !kind.Retryable() {
		return 0, false
	}
	if attempt < 1 || attempt >= e.cfg.MaxAttempts {
		return 0, false
	}

	// base * 2^(attempt-1), capped
	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}

	if kind == KindRateLimited && float64(hint) > delay {
		delay = float64(hint)
	}

	if e.cfg.Jitter > 0 {
		delay += delay * e.cfg.Jitter * e.rand()
	}

	return time.Duration(delay), true
}
