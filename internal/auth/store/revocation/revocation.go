// Package revocation records consumed refresh tokens by jti so a rotated or
// logged-out refresh token cannot be presented again.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Ledger tracks consumed refresh-token ids. Entries only need to outlive the
// token itself, so every mark carries the token's remaining lifetime as TTL.
type Ledger interface {
	// Consume marks jti as used. It reports true only for the first caller,
	// which lets concurrent refreshes of one token race safely.
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsConsumed(ctx context.Context, jti string) (bool, error)
}

type Option func(*InMemoryLedger)

func WithClock(now func() time.Time) Option {
	return func(l *InMemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// InMemoryLedger is a process-local Ledger.
// For multi-instance deployments, use RedisLedger.
type InMemoryLedger struct {
	mu       sync.Mutex
	consumed map[string]time.Time // jti -> expiry
	now      func() time.Time
}

func NewInMemoryLedger(opts ...Option) *InMemoryLedger {
	l := &InMemoryLedger{
		consumed: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *InMemoryLedger) Consume(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiry, ok := l.consumed[jti]; ok && now.Before(expiry) {
		return false, nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	l.consumed[jti] = now.Add(ttl)
	return true, nil
}

func (l *InMemoryLedger) IsConsumed(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, ok := l.consumed[jti]
	if !ok {
		return false, nil
	}
	return l.now().Before(expiry), nil
}

// Sweep removes entries whose tokens would have expired anyway.
func (l *InMemoryLedger) Sweep(_ context.Context, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for jti, expiry := range l.consumed {
		if !now.Before(expiry) {
			delete(l.consumed, jti)
			removed++
		}
	}
	return removed, nil
}
