package ttlcache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCache_GetSet(t *testing.T) {
	c := New[string]()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", "value", time.Minute)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestCache_ExpiredEntryIsAbsent(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock[int](clock.Now)

	c.Set("hours", 42, 10*time.Minute)

	got, ok := c.Get("hours")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	clock.Advance(10*time.Minute + time.Second)

	_, ok = c.Get("hours")
	assert.False(t, ok)
}

func TestCache_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock[int](clock.Now)

	c.Set("k", 1, time.Minute)
	c.Set("k", 2, time.Hour)

	clock.Advance(30 * time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got, "last write wins, including its TTL")
}

func TestCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock[int](clock.Now)

	c.Set("short", 1, time.Minute)
	c.Set("long", 2, time.Hour)
	clock.Advance(5 * time.Minute)

	dropped := c.Sweep()
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestCache_Delete(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("usage:%d", n%10)
			c.Set(key, n, time.Minute)
			c.Get(key)
			c.Sweep()
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 10)
}
