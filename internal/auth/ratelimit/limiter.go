package ratelimit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"smartparking/internal/auth/metrics"
	"smartparking/internal/platform/privacy"
)

// Key scopes, used as metric labels.
const (
	ScopeAccount = "account"
	ScopeIP      = "ip"
)

// Policy caps attempts within a sliding window. A zero MaxAttempts disables it.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

type Config struct {
	Account Policy
	IP      Policy
}

func DefaultConfig() Config {
	return Config{
		Account: Policy{MaxAttempts: 5, Window: 15 * time.Minute},
		IP:      Policy{MaxAttempts: 50, Window: 15 * time.Minute},
	}
}

// Decision is the outcome of a pre-login check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	// Scope names the key that blocked the attempt.
	Scope string
}

func AccountKey(tenantID, email string) string {
	return "login:" + tenantID + ":" + strings.ToLower(strings.TrimSpace(email))
}

func IPKey(ip string) string {
	return "login-ip:" + ip
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// Limiter counts failed logins. Store failures never block a login: the
// attempt is allowed, logged and counted.
type Limiter struct {
	store   Store
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(store Store, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports whether another attempt for this account and IP may proceed.
func (l *Limiter) Check(ctx context.Context, tenantID, email, ip string) Decision {
	now := l.now()
	decision := Decision{Allowed: true, Remaining: l.cfg.Account.MaxAttempts}

	if d, ok := l.check(ctx, ScopeAccount, AccountKey(tenantID, email), l.cfg.Account, now); ok {
		decision = d
	}
	if decision.Allowed && ip != "" {
		if d, ok := l.check(ctx, ScopeIP, IPKey(ip), l.cfg.IP, now); ok {
			if !d.Allowed || d.Remaining < decision.Remaining {
				decision = d
			}
		}
	}

	if !decision.Allowed {
		l.logger.WarnContext(ctx, "login rate limited",
			"scope", decision.Scope,
			"tenant_id", tenantID,
			"email", privacy.MaskEmail(email),
			"ip", privacy.AnonymizeIP(ip),
			"retry_after_s", int(decision.RetryAfter.Seconds()),
		)
	}
	return decision
}

func (l *Limiter) check(ctx context.Context, scope, key string, p Policy, now time.Time) (Decision, bool) {
	if p.MaxAttempts <= 0 {
		return Decision{}, false
	}
	w, err := l.store.Peek(ctx, key, now, p.Window)
	if err != nil {
		l.storeFailure(ctx, "check", scope, err)
		return Decision{}, false
	}
	d := Decision{Allowed: w.Count < p.MaxAttempts, Scope: scope}
	if d.Allowed {
		d.Remaining = p.MaxAttempts - w.Count
	} else {
		d.RetryAfter = w.RetryAfter(now, p.Window)
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
	}
	l.metrics.ObserveRateLimit(scope, d.Allowed)
	return d, true
}

// RecordFailure counts a failed attempt against both keys.
func (l *Limiter) RecordFailure(ctx context.Context, tenantID, email, ip string) {
	now := l.now()
	if l.cfg.Account.MaxAttempts > 0 {
		if _, err := l.store.Hit(ctx, AccountKey(tenantID, email), now, l.cfg.Account.Window); err != nil {
			l.storeFailure(ctx, "record", ScopeAccount, err)
		}
	}
	if l.cfg.IP.MaxAttempts > 0 && ip != "" {
		if _, err := l.store.Hit(ctx, IPKey(ip), now, l.cfg.IP.Window); err != nil {
			l.storeFailure(ctx, "record", ScopeIP, err)
		}
	}
}

// RecordSuccess clears the account key. The IP key keeps counting.
func (l *Limiter) RecordSuccess(ctx context.Context, tenantID, email string) {
	if err := l.store.Reset(ctx, AccountKey(tenantID, email)); err != nil {
		l.storeFailure(ctx, "reset", ScopeAccount, err)
	}
}

func (l *Limiter) storeFailure(ctx context.Context, op, scope string, err error) {
	l.logger.ErrorContext(ctx, "login rate limit store failed, allowing request",
		"op", op,
		"scope", scope,
		"error", err,
	)
	l.metrics.IncrementRateLimitStoreError(op)
}
