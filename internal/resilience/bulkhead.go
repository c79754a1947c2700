package resilience

import (
	"context"
	"errors"

	"golang.org/x/sync/semaphore"
)

// ErrBulkheadFull is returned when all concurrency slots are occupied.
// Callers are rejected immediately rather than queued, the cap is a
// backpressure mechanism protecting the store.
var ErrBulkheadFull = errors.New("bulkhead concurrency limit reached")

// BulkheadConfig controls the concurrency-limiting leg of a policy
type BulkheadConfig struct {
	// MaxConcurrent caps simultaneous in-flight executions; 0 disables
	// the bulkhead
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// Bulkhead bounds the number of concurrent executions of an operation
// process-wide. A nil Bulkhead imposes no limit.
type Bulkhead struct {
	sem *semaphore.Weighted
}

// NewBulkhead creates a bulkhead with the given concurrency cap. It returns
// nil when the config disables the bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		return nil
	}
	return &Bulkhead{sem: semaphore.NewWeighted(int64(config.MaxConcurrent))}
}

// Do runs op while holding a concurrency slot. When no slot is free the
// call fails fast with ErrBulkheadFull.
func (b *Bulkhead) Do(ctx context.Context, op Operation) error {
	if b == nil {
		return op(ctx)
	}
	if !b.sem.TryAcquire(1) {
		return ErrBulkheadFull
	}
	defer b.sem.Release(1)
	return op(ctx)
}
