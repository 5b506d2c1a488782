package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "smartparking:refresh:consumed:"

// RedisLedger shares consumed refresh tokens across instances.
type RedisLedger struct {
	client redis.UniversalClient
}

func NewRedisLedger(client redis.UniversalClient) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	first, err := l.client.SetNX(ctx, keyPrefix+jti, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark refresh token consumed: %w", err)
	}
	return first, nil
}

func (l *RedisLedger) IsConsumed(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check refresh token ledger: %w", err)
	}
	return n > 0, nil
}
