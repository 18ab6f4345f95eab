package query

import (
	"context"
	"strconv"
	"time"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/pkg/ttlcache"
)

// Cache lifetimes. Successful playtime readouts are fresh enough for
// ten minutes; failures are remembered for five so a retry happens
// reasonably soon without hammering the upstream. Levels almost never
// change, so a successful lookup lives half an hour.
const (
	UsageTTL        = 10 * time.Minute
	UsageFailureTTL = 5 * time.Minute
	LevelTTL        = 30 * time.Minute
	LevelFailureTTL = 5 * time.Minute
	ProfileTTL      = 10 * time.Minute
)

// usageKey builds the playtime cache key. Scoped and total-library
// readouts are distinct cache entries.
func usageKey(steamID string, appID *int) string {
	if appID != nil {
		return "owned:" + steamID + ":app:" + strconv.Itoa(*appID)
	}
	return "owned:" + steamID + ":all"
}

func levelKey(steamID string) string {
	return "steam:level:" + steamID
}

func profileKey(steamID string) string {
	return "profile:" + steamID
}

// levelEntry wraps the cached level so a hidden level (nil) is still a
// distinguishable cache hit.
type levelEntry struct {
	Level *int
}

// MemoryStatCache is the in-process StatCache built on the TTL cache.
// The zero value is not usable; call NewMemoryStatCache.
type MemoryStatCache struct {
	usage    *ttlcache.Cache[friends.UsageMetric]
	levels   *ttlcache.Cache[levelEntry]
	profiles *ttlcache.Cache[friends.ProfileSummary]
}

// NewMemoryStatCache creates an in-process stat cache.
func NewMemoryStatCache() *MemoryStatCache {
	return &MemoryStatCache{
		usage:    ttlcache.New[friends.UsageMetric](),
		levels:   ttlcache.New[levelEntry](),
		profiles: ttlcache.New[friends.ProfileSummary](),
	}
}

// StartJanitor starts background sweeps on all three caches. The stop
// channel terminates them.
func (c *MemoryStatCache) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	c.usage.StartJanitor(interval, stop)
	c.levels.StartJanitor(interval, stop)
	c.profiles.StartJanitor(interval, stop)
}

func (c *MemoryStatCache) GetUsage(_ context.Context, key string) (friends.UsageMetric, bool) {
	return c.usage.Get(key)
}

func (c *MemoryStatCache) SetUsage(_ context.Context, key string, metric friends.UsageMetric, ttl time.Duration) {
	c.usage.Set(key, metric, ttl)
}

func (c *MemoryStatCache) GetLevel(_ context.Context, key string) (*int, bool) {
	entry, ok := c.levels.Get(key)
	if !ok {
		return nil, false
	}
	return entry.Level, true
}

func (c *MemoryStatCache) SetLevel(_ context.Context, key string, level *int, ttl time.Duration) {
	c.levels.Set(key, levelEntry{Level: level}, ttl)
}

func (c *MemoryStatCache) GetProfile(_ context.Context, key string) (friends.ProfileSummary, bool) {
	return c.profiles.Get(key)
}

func (c *MemoryStatCache) SetProfile(_ context.Context, key string, summary friends.ProfileSummary, ttl time.Duration) {
	c.profiles.Set(key, summary, ttl)
}
