// Package service implements tenant administration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smartparking/internal/sentinel"
	tenantmetrics "smartparking/internal/tenant/metrics"
	"smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/tracer"
	"smartparking/pkg/requestcontext"
)

// TenantStore is the persistence port for tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
}

// Service orchestrates tenant administration.
type Service struct {
	tenants TenantStore
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
	tracer  tracer.Tracer
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(tenants TenantStore, opts ...Option) *Service {
	s := &Service{
		tenants: tenants,
		logger:  slog.Default(),
		tracer:  tracer.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new active tenant. The slug must be unique.
func (s *Service) Create(ctx context.Context, req *models.CreateTenantRequest) (tenant *models.Tenant, err error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanTenantCreate, tracer.String(tracer.AttrSlug, req.Slug))
	defer func() { span.End(err) }()

	t, err := models.NewTenant(id.NewTenantID(), req.Slug, req.Name, req.Domain, req.Settings, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant slug must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
	}

	s.metrics.IncrementTenantCreated()
	s.logAudit(ctx, "tenant_created", t)
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant ID required")
	}
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err, "failed to load tenant")
	}
	return t, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	slug = models.NormalizeSlug(slug)
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant slug required")
	}
	t, err := s.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, wrapTenantErr(err, "failed to load tenant")
	}
	return t, nil
}

// GetByRef accepts either a tenant UUID or a slug.
func (s *Service) GetByRef(ctx context.Context, ref string) (*models.Tenant, error) {
	if tenantID, err := id.ParseTenantID(ref); err == nil {
		return s.GetByID(ctx, tenantID)
	}
	return s.GetBySlug(ctx, ref)
}

func (s *Service) List(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return tenants, nil
}

// Deactivate makes the tenant unservable. Already inactive is a conflict.
func (s *Service) Deactivate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, tenantID, "deactivate", func(t *models.Tenant, now time.Time) error {
		return t.Deactivate(now)
	})
}

// Activate makes the tenant servable again. Already active is a conflict.
func (s *Service) Activate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.transition(ctx, tenantID, "activate", func(t *models.Tenant, now time.Time) error {
		return t.Activate(now)
	})
}

// UpdateSettings replaces the tenant's settings block.
func (s *Service) UpdateSettings(ctx context.Context, tenantID id.TenantID, settings models.Settings) (*models.Tenant, error) {
	return s.mutate(ctx, tenantID, "tenant_settings_updated", func(t *models.Tenant, now time.Time) error {
		return t.UpdateSettings(settings, now)
	})
}

func (s *Service) transition(ctx context.Context, tenantID id.TenantID, action string, apply func(*models.Tenant, time.Time) error) (*models.Tenant, error) {
	t, err := s.mutate(ctx, tenantID, "tenant_"+action+"d", func(t *models.Tenant, now time.Time) error {
		if err := apply(t, now); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeConflict, err.Error())
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementStatusChange(action)
	return t, nil
}

func (s *Service) mutate(ctx context.Context, tenantID id.TenantID, event string, apply func(*models.Tenant, time.Time) error) (t *models.Tenant, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTenantUpdate, tracer.String(tracer.AttrTenantID, tenantID.String()))
	defer func() { span.End(err) }()

	t, err = s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := apply(t, s.now()); err != nil {
		return nil, err
	}
	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, wrapTenantErr(err, "failed to update tenant")
	}
	s.logAudit(ctx, event, t)
	return t, nil
}

func (s *Service) logAudit(ctx context.Context, event string, t *models.Tenant) {
	s.logger.InfoContext(ctx, event,
		"tenant_id", t.ID,
		"slug", t.Slug,
		"is_active", t.Active,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func wrapTenantErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
