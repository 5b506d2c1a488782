// Package ratelimit limits login attempts per account and per client IP.
//
// Counters live behind Store so a single process can use the in-memory
// sliding window while a fleet shares counters through Redis.
package ratelimit

import (
	"context"
	"time"
)

// Window is the state of one key's sliding window after expired hits are dropped.
type Window struct {
	Count  int
	Oldest time.Time
}

// RetryAfter is the time until the oldest hit leaves the window.
func (w Window) RetryAfter(now time.Time, window time.Duration) time.Duration {
	if w.Count == 0 || w.Oldest.IsZero() {
		return 0
	}
	if d := w.Oldest.Add(window).Sub(now); d > 0 {
		return d
	}
	return 0
}

// Store keeps sliding-window hit counters.
type Store interface {
	// Hit records one attempt at now and returns the window including it.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error)
	// Peek returns the window without recording an attempt.
	Peek(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error)
	Reset(ctx context.Context, key string) error
}
