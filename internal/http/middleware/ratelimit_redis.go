package middleware

import (
	"context"
	"strconv"
	"time"

	"stablecircle/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter on INCR/EXPIRE.
// key format: rl:<prefix>:<window_seconds>:<identifier>
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Enabled is false for a nil limiter or one without a client.
func (r *RedisLimiter) Enabled() bool {
	return r != nil && r.client != nil
}

func (r *RedisLimiter) Allow(ctx context.Context, prefix, id string, max int, window time.Duration) (bool, error) {
	key := "rl:" + prefix + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + id
	val, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		logger.Warn("redis rate limit failed", "key", key, "error", err)
		return true, err
	}
	if val == 1 {
		r.client.Expire(ctx, key, window)
	}
	return val <= int64(max), nil
}

// ConnectRedis returns a client or nil when addr is empty or unreachable.
func ConnectRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process limits and cache", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
