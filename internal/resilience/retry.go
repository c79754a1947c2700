package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Common errors
var (
	ErrRetriesExhausted = errors.New("retry attempts exhausted")
	ErrContextCanceled  = errors.New("context canceled during retry")
)

// Operation is the unit of work a policy executes
type Operation func(ctx context.Context) error

// PermanentError wraps an error that must not be retried and must not count
// against the circuit breaker: lookups of things that do not exist, business
// conflicts, caller mistakes.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as permanent (not retryable)
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// RetryConfig controls the retry leg of a policy
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the initial one
	MaxRetries int `mapstructure:"max_retries"`
	// InitialInterval is the first backoff interval
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration `mapstructure:"max_interval"`
	// Multiplier grows the interval after each attempt
	Multiplier float64 `mapstructure:"multiplier"`
	// JitterFactor adds ±factor random jitter to each interval (0-1)
	JitterFactor float64 `mapstructure:"jitter_factor"`
}

// DefaultRetryConfig returns a conservative default: 3 retries with
// exponential backoff 50ms, 100ms, 200ms (±10% jitter).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.InitialInterval <= 0 {
		c.InitialInterval = def.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.Multiplier <= 0 {
		c.Multiplier = def.Multiplier
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
	return c
}

// Retrier executes operations with bounded exponential-backoff retries
type Retrier struct {
	config RetryConfig
}

// NewRetrier creates a Retrier, filling zero config values with defaults
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{config: config.withDefaults()}
}

// Do executes op, retrying transient failures until the attempt budget is
// spent. A PermanentError stops retrying immediately; the marker is kept on
// the returned error so an outer breaker can classify it. On exhaustion the
// last error is wrapped with ErrRetriesExhausted so callers can classify it
// with errors.Is.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err())
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			return err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err())
		case <-time.After(r.interval(attempt)):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.config.MaxRetries+1, lastErr)
}

// interval computes the backoff before retry number attempt+1
func (r *Retrier) interval(attempt int) time.Duration {
	interval := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	// Jitter spreads out synchronized retries across callers
	if r.config.JitterFactor > 0 {
		jitter := interval * r.config.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}

	if interval > float64(r.config.MaxInterval) {
		interval = float64(r.config.MaxInterval)
	}
	if interval < 0 {
		interval = float64(r.config.InitialInterval)
	}

	return time.Duration(interval)
}
