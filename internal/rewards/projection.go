package rewards

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Projection is the denormalized leaderboard view: live increments keep
// it close to the authoritative balances, a periodic rebuild makes it
// exact. Reads never touch the primary store.
type Projection interface {
	// Add mirrors a balance increment into the projection.
	Add(ctx context.Context, userID string, delta int64) error

	// TopN returns the n highest entries in descending point order.
	TopN(ctx context.Context, n int) ([]LeaderboardEntry, error)

	// Score returns the projected points for a user, and whether the user
	// is present in the projection at all.
	Score(ctx context.Context, userID string) (int64, bool, error)

	// RankOf returns 1 + count of entries with strictly more points.
	// Users with equal points share a rank.
	RankOf(ctx context.Context, points int64) (int64, error)

	// Rebuild replaces the whole projection with the given entries.
	// Idempotent and safe to re-run.
	Rebuild(ctx context.Context, entries []LeaderboardEntry) error
}

const (
	leaderboardKey   = "leaderboard:points"
	profileKeyPrefix = "leaderboard:profile:"
)

// RedisProjection implements Projection on a Redis sorted set, with a
// hash per user for display fields.
type RedisProjection struct {
	client *redis.Client
}

// NewRedisProjection creates a Redis-backed leaderboard projection.
func NewRedisProjection(client *redis.Client) *RedisProjection {
	return &RedisProjection{client: client}
}

func (p *RedisProjection) Add(ctx context.Context, userID string, delta int64) error {
	if err := p.client.ZIncrBy(ctx, leaderboardKey, float64(delta), userID).Err(); err != nil {
		return fmt.Errorf("failed to increment leaderboard score: %w", err)
	}
	return nil
}

func (p *RedisProjection) TopN(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	members, err := p.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	if len(members) == 0 {
		return nil, nil
	}

	pipe := p.client.Pipeline()
	profiles := make([]*redis.MapStringStringCmd, len(members))
	for i, member := range members {
		profiles[i] = pipe.HGetAll(ctx, profileKeyPrefix+member.Member.(string))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read leaderboard profiles: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, member := range members {
		profile := profiles[i].Val()
		entries = append(entries, LeaderboardEntry{
			UserID:        member.Member.(string),
			Username:      profile["username"],
			ProfilePicURL: profile["profilePicUrl"],
			Points:        int64(member.Score),
		})
	}

	return entries, nil
}

func (p *RedisProjection) Score(ctx context.Context, userID string) (int64, bool, error) {
	score, err := p.client.ZScore(ctx, leaderboardKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read leaderboard score: %w", err)
	}
	return int64(score), true, nil
}

func (p *RedisProjection) RankOf(ctx context.Context, points int64) (int64, error) {
	// Exclusive lower bound: only strictly-greater scores count, so tied
	// users share the same rank.
	count, err := p.client.ZCount(ctx, leaderboardKey, "("+strconv.FormatInt(points, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count higher-ranked users: %w", err)
	}
	return count + 1, nil
}

func (p *RedisProjection) Rebuild(ctx context.Context, entries []LeaderboardEntry) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	for _, entry := range entries {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(entry.Points), Member: entry.UserID})
		pipe.HSet(ctx, profileKeyPrefix+entry.UserID, map[string]interface{}{
			"username":      entry.Username,
			"profilePicUrl": entry.ProfilePicURL,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard projection: %w", err)
	}

	return nil
}
