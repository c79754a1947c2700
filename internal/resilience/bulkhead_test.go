package resilience

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkheadRejectsWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := b.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrBulkheadFull)

	close(release)
	wg.Wait()

	// Slot freed, calls pass again.
	err = b.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
}

func TestBulkheadDisabledImposesNoLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})
	require.Nil(t, b)

	err := b.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}
