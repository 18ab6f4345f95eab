package rategate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidCapacity(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(-3)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestGate_BoundsConcurrency(t *testing.T) {
	const capacity = 8
	const tasks = 50

	gate := MustNew(capacity)

	var inFlight atomic.Int64
	var peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			require.NoError(t, gate.Acquire(context.Background()))
			defer gate.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(capacity),
		"no more than %d calls may be in flight at once", capacity)
	assert.Equal(t, 0, gate.InFlight())
}

func TestGate_AcquireHonorsCancellation(t *testing.T) {
	gate := MustNew(1)
	require.NoError(t, gate.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- gate.Acquire(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not observe cancellation")
	}

	// The held permit is still valid and releasable.
	gate.Release()
	assert.Equal(t, 0, gate.InFlight())

	// And the gate is usable afterwards: no permit leaked.
	require.NoError(t, gate.Acquire(context.Background()))
	gate.Release()
}

func TestGate_TryAcquire(t *testing.T) {
	gate := MustNew(1)

	assert.True(t, gate.TryAcquire())
	assert.False(t, gate.TryAcquire())

	gate.Release()
	assert.True(t, gate.TryAcquire())
	gate.Release()
}

func TestGate_DoReleasesOnError(t *testing.T) {
	gate := MustNew(2)

	err := gate.Do(context.Background(), func() error {
		assert.Equal(t, 1, gate.InFlight())
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, gate.InFlight())
}
