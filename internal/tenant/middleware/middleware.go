// Package middleware resolves the tenant of every inbound request.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"smartparking/internal/sentinel"
	"smartparking/internal/tenant/identifier"
	tenantmetrics "smartparking/internal/tenant/metrics"
	"smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/platform/tracer"
	"smartparking/pkg/requestcontext"
)

// DefaultPublicPrefixes are served without a tenant.
var DefaultPublicPrefixes = []string{
	"/health",
	"/api/health",
	"/docs",
	"/api/docs",
	"/api-docs",
	"/swagger",
	"/favicon.ico",
	"/metrics",
}

// Lookup is the read side of the tenant store.
type Lookup interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// Resolver populates the tenant context for each request.
type Resolver struct {
	tenants        Lookup
	logger         *slog.Logger
	metrics        *tenantmetrics.Metrics
	tracer         tracer.Tracer
	publicPrefixes []string
}

type Option func(*Resolver)

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

// WithPublicPrefixes replaces the tenant-exempt path prefixes.
func WithPublicPrefixes(prefixes ...string) Option {
	return func(r *Resolver) {
		r.publicPrefixes = prefixes
	}
}

func New(tenants Lookup, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		tenants:        tenants,
		logger:         logger,
		tracer:         tracer.Noop{},
		publicPrefixes: DefaultPublicPrefixes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsPublic reports whether path is tenant-exempt. Matching is by prefix.
func (m *Resolver) IsPublic(path string) bool {
	for _, prefix := range m.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Handler is the chi middleware.
func (m *Resolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		public := m.IsPublic(r.URL.Path)

		candidate, found := identifier.FromRequest(r)
		if !found {
			if public {
				m.record(ctx, candidate, tenantmetrics.OutcomeSkipped, r.URL.Path)
				next.ServeHTTP(w, r.WithContext(tenantctx.With(ctx, tenantctx.Empty())))
				return
			}
			if header := strings.TrimSpace(r.Header.Get(identifier.HeaderName)); header != "" && !identifier.Valid(header) {
				m.record(ctx, identifier.Candidate{Strategy: identifier.StrategyHeader, Value: header},
					tenantmetrics.OutcomeInvalid, r.URL.Path)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidTenant, "Invalid tenant information"))
				return
			}
			m.record(ctx, candidate, tenantmetrics.OutcomeRequired, r.URL.Path)
			httputil.WriteError(w, dErrors.New(dErrors.CodeTenantRequired,
				"Tenant information is required. Provide it via subdomain, X-Tenant-ID header, or path parameter"))
			return
		}

		tenant, err := m.resolve(ctx, candidate)
		if err != nil {
			if public {
				next.ServeHTTP(w, r.WithContext(tenantctx.With(ctx, tenantctx.Empty())))
				return
			}
			httputil.WriteError(w, err)
			return
		}

		m.record(ctx, candidate, tenantmetrics.OutcomeResolved, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(tenantctx.With(ctx, tenantctx.New(tenant))))
	})
}

// resolve looks the candidate up and enforces the active invariant. Failures
// are already domain errors and have been logged and counted.
func (m *Resolver) resolve(ctx context.Context, c identifier.Candidate) (tenant *models.Tenant, err error) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanTenantResolve,
		tracer.String(tracer.AttrStrategy, string(c.Strategy)),
		tracer.String(tracer.AttrSlug, c.Value),
	)
	defer func() { span.End(err) }()

	tenant, err = m.lookup(ctx, c)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		m.record(ctx, c, tenantmetrics.OutcomeNotFound, "")
		return nil, dErrors.New(dErrors.CodeTenantNotFound, "Tenant not found")
	case err != nil:
		m.metrics.ObserveResolution(string(c.Strategy), tenantmetrics.OutcomeError)
		m.logger.ErrorContext(ctx, "tenant lookup failed",
			"strategy", c.Strategy,
			"slug", c.Value,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tenant lookup failed")
	case !tenant.IsActive():
		m.record(ctx, c, tenantmetrics.OutcomeInactive, "")
		return nil, dErrors.New(dErrors.CodeTenantInactive, "Tenant is inactive")
	}
	span.SetAttributes(tracer.String(tracer.AttrTenantID, tenant.ID.String()))
	return tenant, nil
}

func (m *Resolver) lookup(ctx context.Context, c identifier.Candidate) (*models.Tenant, error) {
	if c.IsUUID {
		tenantID, err := id.ParseTenantID(c.Value)
		if err != nil {
			return nil, sentinel.ErrNotFound
		}
		return m.tenants.FindByID(ctx, tenantID)
	}
	return m.tenants.FindBySlug(ctx, c.Value)
}

func (m *Resolver) record(ctx context.Context, c identifier.Candidate, outcome, path string) {
	m.metrics.ObserveResolution(string(c.Strategy), outcome)
	level := slog.LevelInfo
	switch outcome {
	case tenantmetrics.OutcomeSkipped:
		level = slog.LevelDebug
	case tenantmetrics.OutcomeResolved:
	default:
		level = slog.LevelWarn
	}
	attrs := []any{
		"strategy", c.Strategy,
		"slug", c.Value,
		"outcome", outcome,
		"request_id", requestcontext.RequestID(ctx),
	}
	if path != "" {
		attrs = append(attrs, "path", path)
	}
	m.logger.Log(ctx, level, "tenant resolution", attrs...)
}
