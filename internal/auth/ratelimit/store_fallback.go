package ratelimit

import (
	"context"
	"time"

	"smartparking/pkg/platform/circuit"
)

// FallbackStore serves counters from primary until it fails repeatedly,
// then from fallback until primary has recovered. Primary is still called
// while the breaker is open so recovery can be detected; a result that
// arrives during recovery is discarded in favour of the fallback's.
//
// Fallback counters are local to the process, so limits degrade to
// per-instance while the breaker is open.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
}

func NewFallbackStore(primary, fallback Store, breaker *circuit.Breaker) *FallbackStore {
	if breaker == nil {
		breaker = circuit.New("ratelimit")
	}
	return &FallbackStore{primary: primary, fallback: fallback, breaker: breaker}
}

func (s *FallbackStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	w, err := s.primary.Hit(ctx, key, now, window)
	return s.choose(w, err, func() (Window, error) {
		return s.fallback.Hit(ctx, key, now, window)
	})
}

func (s *FallbackStore) Peek(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	w, err := s.primary.Peek(ctx, key, now, window)
	return s.choose(w, err, func() (Window, error) {
		return s.fallback.Peek(ctx, key, now, window)
	})
}

// Reset clears the key in both stores so a success during an outage is not
// forgotten when primary comes back.
func (s *FallbackStore) Reset(ctx context.Context, key string) error {
	_ = s.fallback.Reset(ctx, key)
	err := s.primary.Reset(ctx, key)
	if err == nil {
		s.breaker.Success()
		return nil
	}
	if s.breaker.Failure() {
		return nil
	}
	return err
}

func (s *FallbackStore) choose(w Window, err error, fallback func() (Window, error)) (Window, error) {
	if err != nil {
		if !s.breaker.Failure() {
			return Window{}, err
		}
		return fallback()
	}
	if s.breaker.Success() {
		return w, nil
	}
	return fallback()
}
