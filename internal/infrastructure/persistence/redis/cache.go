// Package redis implements the shared stat cache on Redis, for
// deployments running more than one instance: playtime, level and
// profile entries warmed by one instance serve requests on all of
// them. Single-instance deployments use the in-process cache instead
// and never open a Redis connection.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// keyPrefix namespaces every key so the cache can share a Redis with
// other tenants.
const keyPrefix = "gametime:"

// ══════════════════════════════════════════════════════════════════════════════
// STAT CACHE
// ══════════════════════════════════════════════════════════════════════════════

// StatCache implements the query layer's cache port on Redis. Cache
// trouble is never an error to the caller: a failed read is a miss and
// a failed write is dropped, both logged. The upstream aggregation
// must keep working with Redis down, just slower.
type StatCache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewStatCache connects to Redis and verifies the connection.
func NewStatCache(ctx context.Context, config Config, log *logger.Logger) (*StatCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr(),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping %s: %w", config.Addr(), err)
	}

	return &StatCache{
		client: client,
		logger: log.With(logger.Component("redis_cache")),
	}, nil
}

// Close releases the connection pool.
func (c *StatCache) Close() error {
	return c.client.Close()
}

func (c *StatCache) GetUsage(ctx context.Context, key string) (friends.UsageMetric, bool) {
	var metric friends.UsageMetric
	return metric, c.get(ctx, key, &metric)
}

func (c *StatCache) SetUsage(ctx context.Context, key string, metric friends.UsageMetric, ttl time.Duration) {
	c.set(ctx, key, metric, ttl)
}

// levelEntry wraps the level so a hidden level is still a hit.
type levelEntry struct {
	Level *int `json:"level"`
}

func (c *StatCache) GetLevel(ctx context.Context, key string) (*int, bool) {
	var entry levelEntry
	if !c.get(ctx, key, &entry) {
		return nil, false
	}
	return entry.Level, true
}

func (c *StatCache) SetLevel(ctx context.Context, key string, level *int, ttl time.Duration) {
	c.set(ctx, key, levelEntry{Level: level}, ttl)
}

func (c *StatCache) GetProfile(ctx context.Context, key string) (friends.ProfileSummary, bool) {
	var summary friends.ProfileSummary
	return summary, c.get(ctx, key, &summary)
}

func (c *StatCache) SetProfile(ctx context.Context, key string, summary friends.ProfileSummary, ttl time.Duration) {
	c.set(ctx, key, summary, ttl)
}

func (c *StatCache) get(ctx context.Context, key string, out any) bool {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", logger.String("key", key), logger.Err(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Warn("cache entry corrupt", logger.String("key", key), logger.Err(err))
		return false
	}
	return true
}

func (c *StatCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", logger.String("key", key), logger.Err(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", logger.String("key", key), logger.Err(err))
	}
}
