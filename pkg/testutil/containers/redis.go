//go:build integration

package containers

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisContainer struct {
	Container *redis.RedisContainer
	Client    *goredis.Client
}

func startRedis(ctx context.Context) (*RedisContainer, error) {
	c, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, err
	}
	uri, err := c.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("connection string: %w", err)
	}
	opts, err := goredis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", uri, err)
	}
	return &RedisContainer{Container: c, Client: goredis.NewClient(opts)}, nil
}

// Reset drops every key.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}
