// Package retry is the retry engine for probe traffic. Synthesis sessions
// fire hundreds of near-identical requests at one target; a transient
// transport failure mid-session would otherwise poison the resolver's view
// of the blocklist, so every live probe goes through here.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Config controls retry behaviour.
type Config struct {
	// Attempts is the total number of tries including the first.
	Attempts int

	// Delay is the sleep before the first retry; it doubles each retry up
	// to MaxDelay.
	Delay    time.Duration
	MaxDelay time.Duration

	// Jitter adds up to 25% random variation to each delay so retries from
	// concurrent sessions do not synchronize.
	Jitter bool
}

// DefaultConfig retries a probe twice with a short backoff. Probes are
// cheap and idempotent; anything a third attempt would not fix is treated
// as a dead target.
func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		Delay:    500 * time.Millisecond,
		MaxDelay: 5 * time.Second,
		Jitter:   true,
	}
}

// StopError marks an error as permanent so Do returns it without retrying.
type StopError struct {
	Err error
}

func (e *StopError) Error() string { return e.Err.Error() }
func (e *StopError) Unwrap() error { return e.Err }

// Stop wraps err so that Do returns it immediately.
func Stop(err error) error { return &StopError{Err: err} }

// Do runs fn until it succeeds, cfg.Attempts is exhausted, fn returns a
// StopError, or ctx is cancelled. It returns nil on the first success and
// the last error otherwise.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}

	var lastErr error
	delay := cfg.Delay
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var stop *StopError
		if errors.As(lastErr, &stop) {
			return stop.Err
		}

		if attempt < cfg.Attempts-1 {
			if err := sleep(ctx, jittered(cfg, delay)); err != nil {
				return err
			}
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}
	return lastErr
}

func jittered(cfg Config, d time.Duration) time.Duration {
	if !cfg.Jitter || d <= 0 {
		return d
	}
	quarter := int64(d) / 4
	if quarter == 0 {
		return d
	}
	return d + time.Duration(rand.Int64N(quarter))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
