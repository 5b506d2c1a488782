//go:build integration

// Package containers starts the backing services integration suites run
// against. Each container starts on first use, is shared by every suite in
// the test binary and is reaped by Ryuk when the binary exits.
package containers

import (
	"context"
	"sync"
	"testing"
	"time"
)

const startTimeout = 2 * time.Minute

type lazy[T any] struct {
	name  string
	start func(ctx context.Context) (T, error)

	mu      sync.Mutex
	started bool
	value   T
	err     error
}

func (l *lazy[T]) get(t testing.TB) T {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		l.value, l.err = l.start(ctx)
		cancel()
		l.started = true
	}
	if l.err != nil {
		t.Fatalf("start %s container: %v", l.name, l.err)
	}
	return l.value
}

var (
	postgresC = &lazy[*PostgresContainer]{name: "postgres", start: startPostgres}
	redisC    = &lazy[*RedisContainer]{name: "redis", start: startRedis}
	kafkaC    = &lazy[*KafkaContainer]{name: "kafka", start: startKafka}
)

// Postgres returns the shared Postgres container with migrations applied.
func Postgres(t testing.TB) *PostgresContainer { return postgresC.get(t) }

// Redis returns the shared Redis container.
func Redis(t testing.TB) *RedisContainer { return redisC.get(t) }

// Kafka returns the shared Kafka-compatible broker.
func Kafka(t testing.TB) *KafkaContainer { return kafkaC.get(t) }
