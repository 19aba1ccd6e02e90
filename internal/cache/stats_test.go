package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"stablecircle/internal/domain"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() *domain.GlobalStats {
	return &domain.GlobalStats{
		TotalSaved:      decimal.RequireFromString("125.5"),
		TotalHubs:       3,
		TotalUsers:      9,
		CommunityStreak: 4,
		LastUpdated:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLocalStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLocalStats(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, sampleStats())
	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, 9, got.TotalUsers)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, sampleStats())
	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestRedisStats(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	c := NewRedisStats(client, time.Minute)
	c.Invalidate(ctx)
	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, sampleStats())
	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.True(t, got.TotalSaved.Equal(decimal.RequireFromString("125.5")))
	assert.Equal(t, 4, got.CommunityStreak)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx)
	assert.False(t, ok)
}
