// Package rategate provides bounded-concurrency admission control for
// outbound Steam API calls. A Gate caps how many calls are in flight at
// once regardless of how large a friend list is, which keeps the fan-out
// inside Steam's tolerance for parallel requests.
package rategate

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrInvalidCapacity is returned by New for a non-positive capacity.
var ErrInvalidCapacity = errors.New("rategate: capacity must be positive")

// Gate is a counting admission gate with a fixed number of permits.
// Acquire blocks until a permit is free or the context is done; every
// successful Acquire must be paired with exactly one Release, including
// on failure paths.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
}

// New creates a Gate with the given permit capacity.
func New(capacity int) (*Gate, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}, nil
}

// MustNew is New for statically known capacities; it panics on error.
func MustNew(capacity int) *Gate {
	g, err := New(capacity)
	if err != nil {
		panic(err)
	}
	return g
}

// Acquire obtains one permit, blocking until one is free. It returns
// ctx.Err() without consuming a permit when the context is cancelled
// while waiting.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inFlight.Add(1)
	return nil
}

// Release returns one permit. Calling Release without a matching
// Acquire corrupts the gate; the semaphore panics in that case.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// TryAcquire obtains a permit without blocking and reports success.
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.inFlight.Add(1)
	return true
}

// Do runs fn while holding a permit. The permit is released on every
// exit path, including a panic inside fn.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// InFlight returns the number of permits currently held. Exposed for
// metrics gauges and tests.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// Capacity returns the gate's permit capacity.
func (g *Gate) Capacity() int {
	return int(g.capacity)
}
