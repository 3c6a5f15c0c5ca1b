package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	leaderboardDto "anoa.com/housecup/internal/modules/leaderboard/dto"
)

const (
	weeklyKeyPrefix  = "leaderboard:weekly:"
	weeklyVersionKey = "leaderboard:weekly:version"
)

// WeeklyCache holds the composed weekly leaderboard for a short TTL.
// Entries are stored under the cache version current when they were read;
// invalidation bumps the version, so a response composed before an
// invalidation is never served after it.
type WeeklyCache interface {
	// GetWeekly reports false on a miss, together with the version a
	// freshly composed response must be stored under.
	GetWeekly(ctx context.Context, weekStart time.Time) (*leaderboardDto.WeeklyLeaderboardResponse, int64, bool, error)
	SetWeekly(ctx context.Context, weekStart time.Time, version int64, resp *leaderboardDto.WeeklyLeaderboardResponse) error
	InvalidateWeekly(ctx context.Context) error
}

type weeklyCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewWeeklyCache(redisClient *redis.Client, ttl time.Duration) WeeklyCache {
	return &weeklyCache{redisClient: redisClient, ttl: ttl}
}

func weeklyKey(weekStart time.Time, version int64) string {
	return fmt.Sprintf("%s%s:v%d", weeklyKeyPrefix, weekStart.Format("2006-01-02"), version)
}

func (c *weeklyCache) GetWeekly(ctx context.Context, weekStart time.Time) (*leaderboardDto.WeeklyLeaderboardResponse, int64, bool, error) {
	version, err := c.redisClient.Get(ctx, weeklyVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}

	raw, err := c.redisClient.Get(ctx, weeklyKey(weekStart, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	var resp leaderboardDto.WeeklyLeaderboardResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	return &resp, version, true, nil
}

func (c *weeklyCache) SetWeekly(ctx context.Context, weekStart time.Time, version int64, resp *leaderboardDto.WeeklyLeaderboardResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, weeklyKey(weekStart, version), raw, c.ttl).Err()
}

// InvalidateWeekly bumps the cache version. Entries of older versions are
// left to expire.
func (c *weeklyCache) InvalidateWeekly(ctx context.Context) error {
	return c.redisClient.Incr(ctx, weeklyVersionKey).Err()
}
