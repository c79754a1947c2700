package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while a policy's breaker is open or the
// half-open probe budget is spent.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig controls the circuit-breaker leg of a policy
type BreakerConfig struct {
	// FailureRateThreshold opens the breaker once the failure rate over a
	// counting window reaches it (0-1)
	FailureRateThreshold float64 `mapstructure:"failure_rate_threshold"`
	// MinRequests is the minimum number of calls in the window before the
	// threshold is evaluated
	MinRequests uint32 `mapstructure:"min_requests"`
	// Interval is the cyclic period over which call counts are collected
	Interval time.Duration `mapstructure:"interval"`
	// OpenTimeout is how long the breaker stays open before half-opening
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// HalfOpenMaxCalls caps probe calls allowed while half-open
	HalfOpenMaxCalls uint32 `mapstructure:"half_open_max_calls"`
}

// DefaultBreakerConfig opens at a 50% failure rate over at least 10 calls
// and probes recovery after 10 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureRateThreshold: 0.5,
		MinRequests:          10,
		Interval:             30 * time.Second,
		OpenTimeout:          10 * time.Second,
		HalfOpenMaxCalls:     3,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	def := DefaultBreakerConfig()
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 1 {
		c.FailureRateThreshold = def.FailureRateThreshold
	}
	if c.MinRequests == 0 {
		c.MinRequests = def.MinRequests
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return c
}

// PolicyConfig configures one named resilience policy
type PolicyConfig struct {
	Retry    RetryConfig    `mapstructure:"retry"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Bulkhead BulkheadConfig `mapstructure:"bulkhead"`
}

// DefaultPolicyConfig returns a policy with default retry and breaker legs
// and no bulkhead.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Retry:   DefaultRetryConfig(),
		Breaker: DefaultBreakerConfig(),
	}
}

// Policy composes retry, circuit breaking and concurrency limiting around an
// operation: retry innermost, breaker next, bulkhead outermost. The order
// matters: a retrying call holds its bulkhead slot for its whole duration,
// and the breaker sees one outcome per retried sequence, not per attempt.
//
// Breaker state is shared by every caller of the policy; construct one
// Policy per logical operation at startup and reuse it.
type Policy struct {
	name     string
	retrier  *Retrier
	breaker  *gobreaker.CircuitBreaker[any]
	bulkhead *Bulkhead
}

// NewPolicy builds a named policy from configuration
func NewPolicy(name string, config PolicyConfig) *Policy {
	breakerCfg := config.Breaker.withDefaults()

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerCfg.HalfOpenMaxCalls,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerCfg.MinRequests {
				return false
			}
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRate >= breakerCfg.FailureRateThreshold
		},
		// Business outcomes must not trip the breaker; only transport and
		// store faults count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
	})

	return &Policy{
		name:     name,
		retrier:  NewRetrier(config.Retry),
		breaker:  breaker,
		bulkhead: NewBulkhead(config.Bulkhead),
	}
}

// Name returns the policy name
func (p *Policy) Name() string {
	return p.name
}

// Execute runs op through the full pipeline: bulkhead(breaker(retry(op))).
func (p *Policy) Execute(ctx context.Context, op Operation) error {
	return p.bulkhead.Do(ctx, func(ctx context.Context) error {
		return p.breakerDo(ctx, func(ctx context.Context) error {
			return p.retrier.Do(ctx, op)
		})
	})
}

// Guard runs op through the bulkhead and breaker without the retry leg.
// Multi-step flows use it around the whole pipeline and apply Retry to the
// individually safe steps inside, so a retry never re-runs steps that have
// already taken effect.
func (p *Policy) Guard(ctx context.Context, op Operation) error {
	return p.bulkhead.Do(ctx, func(ctx context.Context) error {
		return p.breakerDo(ctx, op)
	})
}

// Retry runs op through the retry leg alone.
func (p *Policy) Retry(ctx context.Context, op Operation) error {
	return p.retrier.Do(ctx, op)
}

// IsUnavailable reports whether err means the guarded dependency could not be
// reached right now: retry budget spent, breaker open, or bulkhead full.
// Callers use it to trigger their fallback instead of surfacing raw faults.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrRetriesExhausted) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrContextCanceled)
}

func (p *Policy) breakerDo(ctx context.Context, op Operation) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	// The breaker classified the error already; hand the caller the
	// original condition, not the permanent marker.
	var perm *PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
