package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Retry: fastRetryConfig(1),
		Breaker: BreakerConfig{
			FailureRateThreshold: 0.5,
			MinRequests:          2,
			Interval:             time.Minute,
			OpenTimeout:          time.Minute,
			HalfOpenMaxCalls:     1,
		},
		Bulkhead: BulkheadConfig{MaxConcurrent: 4},
	}
}

func TestPolicyExecuteSuccess(t *testing.T) {
	p := NewPolicy("test", testPolicyConfig())

	err := p.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
}

func TestPolicyExecuteRetriesTransientFailures(t *testing.T) {
	p := NewPolicy("test", testPolicyConfig())

	calls := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPolicyBreakerOpensAfterRepeatedFailures(t *testing.T) {
	p := NewPolicy("test", testPolicyConfig())

	boom := errors.New("store down")
	for i := 0; i < 2; i++ {
		err := p.Execute(context.Background(), func(ctx context.Context) error { return boom })
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
	}

	// Two retried sequences both failed; the breaker is open and calls are
	// rejected without reaching the operation.
	calls := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestPolicyPermanentErrorsDoNotTripBreaker(t *testing.T) {
	p := NewPolicy("test", testPolicyConfig())

	notFound := errors.New("not found")
	for i := 0; i < 10; i++ {
		err := p.Execute(context.Background(), func(ctx context.Context) error {
			return Permanent(notFound)
		})
		require.Error(t, err)
		// The caller sees the business error, not the marker.
		assert.Equal(t, notFound, err)
	}

	err := p.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestPolicyGuardSkipsRetryLeg(t *testing.T) {
	p := NewPolicy("test", testPolicyConfig())

	calls := 0
	err := p.Guard(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyBulkheadRejectsOverflow(t *testing.T) {
	cfg := testPolicyConfig()
	cfg.Bulkhead.MaxConcurrent = 1
	p := NewPolicy("test", cfg)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Guard(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	defer close(release)

	err := p.Guard(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrBulkheadFull)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(ErrCircuitOpen))
	assert.True(t, IsUnavailable(ErrBulkheadFull))
	assert.True(t, IsUnavailable(errors.Join(ErrRetriesExhausted, errors.New("store down"))))
	assert.False(t, IsUnavailable(nil))
	assert.False(t, IsUnavailable(errors.New("not found")))
}
