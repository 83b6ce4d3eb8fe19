// Package retry runs operations with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultMaxJitter   = 1000 * time.Millisecond
)

// Config is an immutable retry policy.
type Config struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int `env:"RETRY_MAX_ATTEMPTS" yaml:"max_attempts"`
	// BaseDelay is the delay before the first retry, before jitter.
	BaseDelay time.Duration `env:"RETRY_BASE_DELAY" yaml:"base_delay"`
	// MaxDelay caps every computed delay, jitter included.
	MaxDelay time.Duration `env:"RETRY_MAX_DELAY" yaml:"max_delay"`
	// MaxJitter bounds the random component added to each delay. Zero means
	// DefaultMaxJitter; a negative value disables jitter.
	MaxJitter time.Duration `yaml:"max_jitter"`
	// IsRetryable reports whether err deserves another attempt. Nil retries everything.
	IsRetryable func(error) bool `yaml:"-"`
	// Sleep waits for d or until ctx is done. Nil uses a timer; tests substitute it.
	Sleep func(ctx context.Context, d time.Duration) error `yaml:"-"`
}

// DefaultConfig returns the default retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		MaxJitter:   DefaultMaxJitter,
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	switch {
	case c.MaxJitter == 0:
		c.MaxJitter = DefaultMaxJitter
	case c.MaxJitter < 0:
		c.MaxJitter = 0
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	return c
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Do returns it immediately. Do unwraps it before
// returning, so callers see the original error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff returns the delay before retry k (k=0 is the first retry):
// min(base*2^k + jitter, max).
func Backoff(cfg Config, k int, jitter time.Duration) time.Duration {
	cfg = cfg.withDefaults()
	if k < 0 {
		k = 0
	}

	delay := cfg.BaseDelay
	for range k {
		if delay >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
		delay *= 2
	}

	delay += jitter
	if delay > cfg.MaxDelay || delay < 0 {
		return cfg.MaxDelay
	}
	return delay
}

// Do invokes fn up to cfg.MaxAttempts times, sleeping Backoff between attempts.
// The error of the final attempt is returned unchanged.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error

	for attempt := range cfg.MaxAttempts {
		if attempt > 0 {
			delay := Backoff(cfg, attempt-1, jitter(cfg.MaxJitter))
			if err := cfg.Sleep(ctx, delay); err != nil {
				return zero, errors.Join(lastErr, err)
			}
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		lastErr = err
		if cfg.IsRetryable != nil && !cfg.IsRetryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

func jitter(maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 {
		return 0
	}
	return rand.N(maxJitter)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
