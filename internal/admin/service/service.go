// Package service implements tenant-scoped administrator management.
//
// Every operation takes the request's tenant context and fails with
// TENANT_REQUIRED when it is empty. Administrators of other tenants are
// reported as not found.
package service

import (
	"context"
	"log/slog"
	"time"

	"smartparking/internal/admin/models"
	"smartparking/internal/auth/password"
	tenantmodels "smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	platformsync "smartparking/pkg/platform/sync"
	"smartparking/pkg/platform/tracer"
	"smartparking/pkg/requestcontext"
)

// AdminStore is the persistence port for administrators.
type AdminStore interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByID(ctx context.Context, adminID id.AdminID) (*models.Admin, error)
	FindByEmailAndTenant(ctx context.Context, email string, tenantID id.TenantID, includeHash bool) (*models.Admin, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Admin, error)
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, adminID id.AdminID) error
}

// PasswordHasher derives and verifies password hashes.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, encoded string) bool
}

type Service struct {
	admins AdminStore
	hasher PasswordHasher
	policy password.Policy
	// creates serializes the count-then-insert of Create and Register per tenant.
	creates *platformsync.ShardedMutex[id.TenantID]
	logger  *slog.Logger
	tracer  tracer.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
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

// WithPolicy overrides the password policy for new and changed passwords.
func WithPolicy(p password.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(admins AdminStore, hasher PasswordHasher, opts ...Option) *Service {
	s := &Service{
		admins:  admins,
		hasher:  hasher,
		policy:  password.StrongPolicy{},
		creates: platformsync.NewShardedMutex[id.TenantID](0),
		logger:  slog.Default(),
		tracer:  tracer.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FeatureSelfRegistration keeps Register open after a tenant has its first
// administrator.
const FeatureSelfRegistration = "self_registration"

// Create adds an administrator to the resolved tenant on behalf of an
// authenticated administrator, honouring the tenant's max_users setting.
func (s *Service) Create(ctx context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest) (*models.Admin, error) {
	return s.create(ctx, tc, req, tracer.SpanAdminCreate, "admin_created", nil)
}

// Register is the unauthenticated sign-up of an administrator. It is open
// while the tenant has no administrators, so a new tenant can bootstrap its
// first account, and afterwards only when the tenant enables the
// self_registration feature. max_users applies as for Create.
func (s *Service) Register(ctx context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest) (*models.Admin, error) {
	return s.create(ctx, tc, req, tracer.SpanAdminRegister, "admin_registered", func(tenant *tenantmodels.Tenant, existing int) error {
		if existing > 0 && !tenant.Settings.FeatureEnabled(FeatureSelfRegistration) {
			return dErrors.New(dErrors.CodeForbidden, "self-registration is closed for this tenant")
		}
		return nil
	})
}

// admitFunc decides, under the tenant's create lock and given its current
// administrator count, whether one more administrator may join.
type admitFunc func(tenant *tenantmodels.Tenant, existing int) error

func (s *Service) create(ctx context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest, spanName, event string, admit admitFunc) (admin *models.Admin, err error) {
	tenant, err := tc.Require()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	ctx, span := s.tracer.Start(ctx, spanName, tracer.String(tracer.AttrTenantID, tenant.ID.String()))
	defer func() { span.End(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.policy.Check(req.Password); err != nil {
		return nil, err
	}

	defer s.creates.Lock(tenant.ID)()
	limit := tenant.Settings.MaxUsers
	if admit != nil || limit > 0 {
		existing, err := s.admins.CountByTenant(ctx, tenant.ID)
		if err != nil {
			return nil, translateStoreErr(err, "failed to count administrators")
		}
		if admit != nil {
			if err := admit(tenant, existing); err != nil {
				return nil, err
			}
		}
		if limit > 0 && existing >= limit {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant has reached its administrator limit")
		}
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}
	admin, err = models.NewAdmin(id.NewAdminID(), tenant.ID, req.Email, req.Name, hash, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, translateStoreErr(err, "failed to create administrator")
	}

	s.logAudit(ctx, event, admin)
	return admin.WithoutHash(), nil
}

// Get returns an administrator of the resolved tenant.
func (s *Service) Get(ctx context.Context, tc *tenantctx.Context, adminID id.AdminID) (*models.Admin, error) {
	tenantID, err := tc.TenantID()
	if err != nil {
		return nil, err
	}
	return s.load(ctx, tenantID, adminID)
}

// List returns every administrator of the resolved tenant.
func (s *Service) List(ctx context.Context, tc *tenantctx.Context) ([]*models.Admin, error) {
	tenantID, err := tc.TenantID()
	if err != nil {
		return nil, err
	}
	admins, err := s.admins.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to list administrators")
	}
	return admins, nil
}

// Update changes the name and/or email of an administrator.
func (s *Service) Update(ctx context.Context, tc *tenantctx.Context, adminID id.AdminID, req *models.UpdateAdminRequest) (*models.Admin, error) {
	tenantID, err := tc.TenantID()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.load(ctx, tenantID, adminID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if req.Name != nil {
		if err := admin.Rename(*req.Name, now); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		if err := admin.ChangeEmail(*req.Email, now); err != nil {
			return nil, err
		}
	}
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, translateStoreErr(err, "failed to update administrator")
	}
	s.logAudit(ctx, "admin_updated", admin)
	return admin, nil
}

// ChangePassword replaces the password after verifying the current one.
// The new password must satisfy the policy and differ from the current one.
func (s *Service) ChangePassword(ctx context.Context, tc *tenantctx.Context, adminID id.AdminID, req *models.ChangePasswordRequest) (err error) {
	tenantID, err := tc.TenantID()
	if err != nil {
		return err
	}
	if req == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanAdminPassword, tracer.String(tracer.AttrAdminID, adminID.String()))
	defer func() { span.End(err) }()

	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.policy.Check(req.NewPassword); err != nil {
		return err
	}
	if req.NewPassword == req.CurrentPassword {
		return dErrors.Validation("new_password", "must differ from the current password")
	}

	admin, err := s.load(ctx, tenantID, adminID)
	if err != nil {
		return err
	}
	withHash, err := s.admins.FindByEmailAndTenant(ctx, admin.Email, tenantID, true)
	if err != nil {
		return translateStoreErr(err, "failed to load credentials")
	}
	if !s.hasher.Verify(ctx, req.CurrentPassword, withHash.PasswordHash) {
		return dErrors.New(dErrors.CodeInvalidCredentials, "current password is incorrect")
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return err
	}
	withHash.SetPasswordHash(hash, s.now())
	if err := s.admins.Update(ctx, withHash); err != nil {
		return translateStoreErr(err, "failed to update password")
	}
	s.logAudit(ctx, "admin_password_changed", withHash)
	return nil
}

// Delete removes an administrator. Administrators cannot delete themselves.
func (s *Service) Delete(ctx context.Context, tc *tenantctx.Context, actorID, adminID id.AdminID) error {
	tenantID, err := tc.TenantID()
	if err != nil {
		return err
	}
	if actorID == adminID {
		return dErrors.New(dErrors.CodeConflict, "administrators cannot delete their own account")
	}
	admin, err := s.load(ctx, tenantID, adminID)
	if err != nil {
		return err
	}
	if err := s.admins.Delete(ctx, adminID); err != nil {
		return translateStoreErr(err, "failed to delete administrator")
	}
	s.logAudit(ctx, "admin_deleted", admin)
	return nil
}

// load fetches an admin and hides admins of other tenants behind not found.
func (s *Service) load(ctx context.Context, tenantID id.TenantID, adminID id.AdminID) (*models.Admin, error) {
	if adminID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "admin ID required")
	}
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load administrator")
	}
	if !admin.BelongsTo(tenantID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "administrator not found")
	}
	return admin, nil
}

func (s *Service) logAudit(ctx context.Context, event string, a *models.Admin) {
	s.logger.InfoContext(ctx, event,
		"admin_id", a.ID,
		"tenant_id", a.TenantID,
		"request_id", requestcontext.RequestID(ctx),
	)
}
