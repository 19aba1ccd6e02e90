// Package cache keeps the global stats aggregate between mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const statsKey = "stablecircle:stats:global"

// RedisStats shares the aggregate between API replicas. Redis failures are
// treated as a miss so the stats endpoint keeps working.
type RedisStats struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStats(client *redis.Client, ttl time.Duration) *RedisStats {
	return &RedisStats{client: client, ttl: ttl}
}

func (c *RedisStats) Get(ctx context.Context) (*domain.GlobalStats, bool) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("stats cache read failed", "error", err)
		}
		return nil, false
	}
	var st domain.GlobalStats
	if err := json.Unmarshal(raw, &st); err != nil {
		logger.Warn("stats cache entry corrupt", "error", err)
		return nil, false
	}
	return &st, true
}

func (c *RedisStats) Set(ctx context.Context, st *domain.GlobalStats) {
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		logger.Warn("stats cache write failed", "error", err)
	}
}

func (c *RedisStats) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		logger.Warn("stats cache invalidate failed", "error", err)
	}
}

// LocalStats is the single-process fallback when REDIS_ADDR is unset.
type LocalStats struct {
	mu      sync.Mutex
	ttl     time.Duration
	st      *domain.GlobalStats
	expires time.Time
	now     func() time.Time
}

func NewLocalStats(ttl time.Duration) *LocalStats {
	return &LocalStats{ttl: ttl, now: time.Now}
}

func (c *LocalStats) Get(context.Context) (*domain.GlobalStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	cp := *c.st
	return &cp, true
}

func (c *LocalStats) Set(_ context.Context, st *domain.GlobalStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *st
	c.st = &cp
	c.expires = c.now().Add(c.ttl)
}

func (c *LocalStats) Invalidate(context.Context) {
	c.mu.Lock()
	c.st = nil
	c.mu.Unlock()
}
