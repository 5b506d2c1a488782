package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "smartparking:ratelimit:"

// RedisStore implements Store with one sorted set per key, scored by hit time
// in milliseconds. Each operation runs in a MULTI/EXEC pipeline.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. An empty prefix uses the default.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	k := s.prefix + key
	member := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff(now, window))
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		card = pipe.ZCard(ctx, k)
		oldest = pipe.ZRangeWithScores(ctx, k, 0, 0)
		pipe.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return Window{}, fmt.Errorf("record hit: %w", err)
	}
	return toWindow(card, oldest), nil
}

func (s *RedisStore) Peek(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	k := s.prefix + key

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff(now, window))
		card = pipe.ZCard(ctx, k)
		oldest = pipe.ZRangeWithScores(ctx, k, 0, 0)
		return nil
	})
	if err != nil {
		return Window{}, fmt.Errorf("peek window: %w", err)
	}
	return toWindow(card, oldest), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("reset window: %w", err)
	}
	return nil
}

// cutoff is the inclusive upper score bound of expired hits.
func cutoff(now time.Time, window time.Duration) string {
	return strconv.FormatInt(now.Add(-window).UnixMilli(), 10)
}

func toWindow(card *redis.IntCmd, oldest *redis.ZSliceCmd) Window {
	w := Window{Count: int(card.Val())}
	if zs := oldest.Val(); len(zs) > 0 {
		w.Oldest = time.UnixMilli(int64(zs[0].Score))
	}
	return w
}
