// Package throttle is a per-client-IP token bucket in front of the
// authentication endpoints.
package throttle

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/requestcontext"
)

// Config sets the sustained rate and burst allowed per IP.
type Config struct {
	Rate            rate.Limit
	Burst           int
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Rate:            rate.Limit(5),
		Burst:           10,
		IdleTTL:         10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

type visitor struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter tracks one rate.Limiter per client IP.
type Limiter struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New starts a Limiter with a background sweep of idle entries. Call Stop to end it.
func New(cfg Config, logger *slog.Logger) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultConfig().IdleTTL
	}
	l := &Limiter{
		cfg:      cfg,
		logger:   logger,
		visitors: make(map[string]*visitor),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow reports whether a request from key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.cfg.Rate, l.cfg.Burst)}
		l.visitors[key] = v
	}
	now := l.now()
	v.lastAccess = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = "unknown"
		}
		if !l.Allow(ip) {
			l.logger.WarnContext(ctx, "client throttled",
				"request_id", requestcontext.RequestID(ctx),
				"path", r.URL.Path,
			)
			retry := 1
			if l.cfg.Rate > 0 {
				retry = max(1, int(1/float64(l.cfg.Rate)+0.5))
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:            "rate_limited",
				ErrorDescription: "Too many requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	for key, v := range l.visitors {
		if v.lastAccess.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}
