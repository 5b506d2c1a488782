// Package redis connects the shared go-redis client used by the rate limit
// and refresh-token stores.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"smartparking/internal/platform/config"
)

type Client struct {
	*redis.Client
}

// New connects and pings Redis. With no URL it returns nil, nil. Pool
// statistics are exported on reg when it is not nil.
func New(ctx context.Context, cfg config.RedisConfig, reg prometheus.Registerer) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), c.Close())
	}
	if reg != nil {
		if err := c.registerPoolStats(reg); err != nil {
			return nil, errors.Join(err, c.Close())
		}
	}
	return c, nil
}

// Health is a readiness check.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// registerPoolStats reads PoolStats at scrape time.
func (c *Client) registerPoolStats(reg prometheus.Registerer) error {
	gauge := func(name, help string, read func(*redis.PoolStats) uint32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(read(c.PoolStats()))
		})
	}
	counter := func(name, help string, read func(*redis.PoolStats) uint32) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
			return float64(read(c.PoolStats()))
		})
	}
	for _, col := range []prometheus.Collector{
		gauge("smartparking_redis_pool_total_conns", "Connections in the Redis pool",
			func(s *redis.PoolStats) uint32 { return s.TotalConns }),
		gauge("smartparking_redis_pool_idle_conns", "Idle connections in the Redis pool",
			func(s *redis.PoolStats) uint32 { return s.IdleConns }),
		counter("smartparking_redis_pool_timeouts_total", "Times a pool connection could not be obtained in time",
			func(s *redis.PoolStats) uint32 { return s.Timeouts }),
		counter("smartparking_redis_pool_hits_total", "Free connections found in the pool",
			func(s *redis.PoolStats) uint32 { return s.Hits }),
	} {
		if err := reg.Register(col); err != nil {
			return fmt.Errorf("register redis pool stats: %w", err)
		}
	}
	return nil
}
