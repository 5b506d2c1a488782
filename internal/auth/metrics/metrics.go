package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login and refresh outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid_credentials"
	OutcomeAccount      = "account_invalid"
	OutcomeRateLimited  = "rate_limited"
	OutcomeTenant       = "tenant_error"
	OutcomeInvalidToken = "invalid_token"
	OutcomeReplayed     = "replayed"
	OutcomeError        = "error"
)

// Metrics holds Prometheus collectors for authentication.
type Metrics struct {
	LoginAttempts        *prometheus.CounterVec
	LoginDuration        prometheus.Histogram
	Refreshes            *prometheus.CounterVec
	RefreshDuration      prometheus.Histogram
	RateLimitDecisions   *prometheus.CounterVec
	RateLimitStoreErrors *prometheus.CounterVec
	RateLimitDegraded    prometheus.Gauge
	RefreshTokenReuse    prometheus.Counter
	LedgerWriteFailures  prometheus.Counter
	EventsDropped        prometheus.Counter
	ObserverFailures     *prometheus.CounterVec
}

// New registers auth metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_login_attempts_total",
			Help: "Administrator login attempts by outcome",
		}, []string{"outcome"}),
		LoginDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartparking_login_duration_seconds",
			Help:    "Duration of login requests including password verification",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_token_refreshes_total",
			Help: "Token refresh attempts by outcome",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartparking_token_refresh_duration_seconds",
			Help:    "Duration of token refresh operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		RateLimitDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_login_ratelimit_decisions_total",
			Help: "Login rate limit decisions by key scope",
		}, []string{"scope", "decision"}),
		RateLimitStoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_login_ratelimit_store_errors_total",
			Help: "Rate limit store failures (fail-open events)",
		}, []string{"op"}),
		RateLimitDegraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smartparking_login_ratelimit_degraded",
			Help: "1 while login rate limits are served from the local fallback store",
		}),
		RefreshTokenReuse: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartparking_refresh_token_reuse_total",
			Help: "Refresh tokens presented after they were consumed",
		}),
		LedgerWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartparking_refresh_ledger_write_failures_total",
			Help: "Failures recording consumed refresh tokens",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartparking_login_events_dropped_total",
			Help: "Login events dropped because the event buffer was full",
		}),
		ObserverFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartparking_login_observer_failures_total",
			Help: "Login observer errors and panics",
		}, []string{"observer"}),
	}
}

func (m *Metrics) ObserveLogin(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
	m.LoginDuration.Observe(durationSeconds)
}

func (m *Metrics) ObserveRefresh(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(durationSeconds)
}

func (m *Metrics) ObserveRateLimit(scope string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "blocked"
	}
	m.RateLimitDecisions.WithLabelValues(scope, decision).Inc()
}

func (m *Metrics) IncrementRateLimitStoreError(op string) {
	if m == nil {
		return
	}
	m.RateLimitStoreErrors.WithLabelValues(op).Inc()
}

// SetRateLimitDegraded matches circuit.OnStateChange.
func (m *Metrics) SetRateLimitDegraded(_ string, degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.RateLimitDegraded.Set(1)
		return
	}
	m.RateLimitDegraded.Set(0)
}

func (m *Metrics) IncrementRefreshTokenReuse() {
	if m == nil {
		return
	}
	m.RefreshTokenReuse.Inc()
}

func (m *Metrics) IncrementLedgerWriteFailure() {
	if m == nil {
		return
	}
	m.LedgerWriteFailures.Inc()
}

func (m *Metrics) IncrementEventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

func (m *Metrics) IncrementObserverFailure(observer string) {
	if m == nil {
		return
	}
	m.ObserverFailures.WithLabelValues(observer).Inc()
}
