package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix is the namespace for rule snapshots in Redis.
// Example: "rules:arwd"
const redisKeyPrefix = "rules"

// RedisRulesCache implements RulesCache backed by Redis, so several
// server instances can share one invalidation. The snapshot is stored
// as a single JSON blob per district; rule sets are small enough that
// round-tripping the whole list is cheaper than per-rule keys.
type RedisRulesCache struct {
	client     *redis.Client
	districtID string
	config     CacheConfig
}

// NewRedisRulesCache initializes a new Redis-backed rules cache and
// verifies connectivity before returning.
func NewRedisRulesCache(ctx context.Context, addr, districtID string, config CacheConfig) (*RedisRulesCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(initCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRulesCache{
		client:     client,
		districtID: districtID,
		config:     config,
	}, nil
}

func (c *RedisRulesCache) key() string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, c.districtID)
}

// Get retrieves the cached rule snapshot, nil on miss or decode failure.
// A corrupt payload is treated as a miss so the caller falls back to the
// store and overwrites it.
func (c *RedisRulesCache) Get() []*Rule {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	payload, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		return nil
	}

	var rules []*Rule
	if err := json.Unmarshal(payload, &rules); err != nil {
		return nil
	}
	return rules
}

// Set stores the rule snapshot
func (c *RedisRulesCache) Set(rules []*Rule) {
	payload, err := json.Marshal(rules)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c.client.Set(ctx, c.key(), payload, c.config.TTL)
}

// Invalidate deletes the snapshot key
func (c *RedisRulesCache) Invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c.client.Del(ctx, c.key())
}

// IsValid reports whether a snapshot key currently exists
func (c *RedisRulesCache) IsValid() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	n, err := c.client.Exists(ctx, c.key()).Result()
	return err == nil && n > 0
}

// Close terminates the Redis connection
func (c *RedisRulesCache) Close() error {
	return c.client.Close()
}
