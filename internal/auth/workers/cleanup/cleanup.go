package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Sweeper drops entries that are no longer relevant at now.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// CleanupResult summarizes the removals performed by a cleanup run.
type CleanupResult struct {
	RateLimitKeys  int
	ConsumedTokens int
	Duration       time.Duration
}

// CleanupService periodically removes idle rate-limit windows and expired
// refresh-token ledger entries from the in-memory stores.
type CleanupService struct {
	rateLimits Sweeper
	ledger     Sweeper
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCleanupClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a CleanupService. Either sweeper may be nil when the
// corresponding store is external (Redis expires keys itself).
func New(rateLimits, ledger Sweeper, opts ...CleanupOption) (*CleanupService, error) {
	if rateLimits == nil && ledger == nil {
		return nil, fmt.Errorf("at least one sweeper is required")
	}
	svc := &CleanupService{
		rateLimits: rateLimits,
		ledger:     ledger,
		interval:   5 * time.Minute,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "auth cleanup failed", "error", err)
				continue
			}
			s.logger.DebugContext(ctx, "auth cleanup completed",
				"ratelimit_keys_removed", res.RateLimitKeys,
				"consumed_tokens_removed", res.ConsumedTokens,
				"duration_ms", res.Duration.Milliseconds(),
			)
		case <-ctx.Done():
			s.logger.Info("auth cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce performs a single cleanup pass. Errors from each sweeper are joined.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	start := time.Now()
	now := s.now()
	var res CleanupResult
	var errs []error

	if s.rateLimits != nil {
		n, err := s.rateLimits.Sweep(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep rate limit windows: %w", err))
		}
		res.RateLimitKeys = n
	}
	if s.ledger != nil {
		n, err := s.ledger.Sweep(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep refresh token ledger: %w", err))
		}
		res.ConsumedTokens = n
	}

	res.Duration = time.Since(start)
	return res, errors.Join(errs...)
}
