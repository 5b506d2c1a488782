// Package service implements administrator authentication: login, token
// refresh with rotation, access-token validation and logout.
package service

import (
	"context"
	"log/slog"
	"time"

	adminmodels "smartparking/internal/admin/models"
	"smartparking/internal/auth/events"
	"smartparking/internal/auth/metrics"
	"smartparking/internal/auth/ratelimit"
	"smartparking/internal/auth/store/revocation"
	"smartparking/internal/auth/token"
	tenantmodels "smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
	"smartparking/pkg/platform/tracer"
)

// AdminStore is the slice of the administrator store authentication needs.
// Find methods return sentinel.ErrNotFound when the admin does not exist.
type AdminStore interface {
	FindByID(ctx context.Context, adminID id.AdminID) (*adminmodels.Admin, error)
	FindByEmailAndTenant(ctx context.Context, email string, tenantID id.TenantID, includeHash bool) (*adminmodels.Admin, error)
	RecordLogin(ctx context.Context, adminID id.AdminID, at time.Time) error
}

// TenantStore looks tenants up by id.
type TenantStore interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

type PasswordHasher interface {
	Verify(ctx context.Context, plaintext, encoded string) bool
}

// TokenService issues and validates signed tokens.
type TokenService interface {
	Issue(sub token.Subject, kind token.Kind) (token.Issued, error)
	IssuePair(sub token.Subject) (*token.Pair, error)
	Validate(tokenString string, kind token.Kind, maxAge time.Duration) (*token.Claims, error)
}

// RateLimiter guards login attempts per account and per client IP.
type RateLimiter interface {
	Check(ctx context.Context, tenantID, email, ip string) ratelimit.Decision
	RecordFailure(ctx context.Context, tenantID, email, ip string)
	RecordSuccess(ctx context.Context, tenantID, email string)
}

type Config struct {
	// RotateRefreshTokens consumes the presented refresh token on every
	// refresh and returns a replacement.
	RotateRefreshTokens bool
}

func DefaultConfig() Config {
	return Config{RotateRefreshTokens: true}
}

type Service struct {
	admins  AdminStore
	tenants TenantStore
	hasher  PasswordHasher
	tokens  TokenService
	ledger  revocation.Ledger
	cfg     Config

	limiter   RateLimiter
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithRateLimiter enables login throttling.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithPublisher sends login events to p, usually an *events.Bus.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(admins AdminStore, tenants TenantStore, hasher PasswordHasher, tokens TokenService,
	ledger revocation.Ledger, cfg Config, opts ...Option) *Service {
	s := &Service{
		admins:  admins,
		tenants: tenants,
		hasher:  hasher,
		tokens:  tokens,
		ledger:  ledger,
		cfg:     cfg,
		logger:  slog.Default(),
		tracer:  tracer.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func subjectFor(a *adminmodels.Admin) token.Subject {
	return token.Subject{
		AdminID:  a.ID,
		TenantID: a.TenantID,
		Email:    a.Email,
		Role:     token.RoleAdmin,
	}
}
