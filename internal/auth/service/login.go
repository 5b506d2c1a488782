package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	adminmodels "smartparking/internal/admin/models"
	"smartparking/internal/auth/events"
	"smartparking/internal/auth/metrics"
	"smartparking/internal/auth/models"
	"smartparking/internal/auth/ratelimit"
	"smartparking/internal/platform/privacy"
	tenantmodels "smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/tracer"
	"smartparking/pkg/requestcontext"
)

// timingHash is well formed but matches no password. Unknown emails verify
// against it so they cost one derivation like a wrong password does.
var timingHash = strings.Repeat("0", 64) + ":" + strings.Repeat("0", 128)

// LoginOutcome carries the result plus rate-limit state for response headers.
// RateLimitRemaining is negative when no limiter is configured.
type LoginOutcome struct {
	Result             *models.LoginResult
	RateLimitRemaining int
}

// Login authenticates an administrator of the resolved tenant and issues a
// token pair. Every credential failure returns the same error.
func (s *Service) Login(ctx context.Context, tc *tenantctx.Context, req *models.LoginRequest) (out *LoginOutcome, err error) {
	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() {
		s.metrics.ObserveLogin(outcome, time.Since(start).Seconds())
	}()

	if req == nil {
		outcome = metrics.OutcomeInvalid
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	tenant, err := s.loginTenant(ctx, tc, req.TenantUUID)
	if err != nil {
		outcome = metrics.OutcomeTenant
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanAuthLogin, tracer.String(tracer.AttrTenantID, tenant.ID.String()))
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, outcome))
		span.End(err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		outcome = metrics.OutcomeInvalid
		return nil, err
	}

	tenantID := tenant.ID.String()
	ip := requestcontext.ClientIP(ctx)
	decision := ratelimit.Decision{Allowed: true, Remaining: -1}
	if s.limiter != nil {
		decision = s.limiter.Check(ctx, tenantID, req.Email, ip)
		if !decision.Allowed {
			outcome = metrics.OutcomeRateLimited
			s.publishFailure(ctx, tenant.ID, req.Email, "rate_limited")
			return nil, dErrors.New(dErrors.CodeRateLimited,
				fmt.Sprintf("Too many login attempts. Try again in %d seconds", int(decision.RetryAfter.Seconds())))
		}
	}

	admin, err := s.authenticate(ctx, tenant.ID, req.Email, req.Password)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeInvalidCredentials):
			outcome = metrics.OutcomeInvalid
		case dErrors.HasCode(err, dErrors.CodeAccountInvalid):
			outcome = metrics.OutcomeAccount
		}
		if outcome != metrics.OutcomeError && s.limiter != nil {
			s.limiter.RecordFailure(ctx, tenantID, req.Email, ip)
		}
		s.publishFailure(ctx, tenant.ID, req.Email, outcome)
		return nil, err
	}

	result, sessionID, err := s.issueLogin(admin)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue tokens")
	}

	now := s.now()
	if err := s.admins.RecordLogin(ctx, admin.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			"admin_id", admin.ID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		admin.RecordLogin(now)
		result.Admin = adminmodels.ToAdminResponse(admin)
	}
	if s.limiter != nil {
		s.limiter.RecordSuccess(ctx, tenantID, req.Email)
	}

	outcome = metrics.OutcomeSuccess
	s.publish(ctx, events.LoginEvent{
		Type:      events.TypeLoginSucceeded,
		AdminID:   admin.ID.String(),
		TenantID:  tenantID,
		Email:     admin.Email,
		SessionID: sessionID.String(),
	})
	s.logger.InfoContext(ctx, "admin_login",
		"admin_id", admin.ID,
		"tenant_id", tenant.ID,
		"session_id", sessionID,
		"ip", privacy.AnonymizeIP(ip),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &LoginOutcome{Result: result, RateLimitRemaining: decision.Remaining}, nil
}

// loginTenant picks the tenant a login runs against. An explicit tenant id
// may only confirm the resolved tenant, or stand in when none was resolved.
func (s *Service) loginTenant(ctx context.Context, tc *tenantctx.Context, explicit string) (*tenantmodels.Tenant, error) {
	explicit = strings.TrimSpace(explicit)
	if resolved, ok := tc.Tenant(); ok {
		if explicit != "" && !strings.EqualFold(explicit, resolved.ID.String()) {
			return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantUuid does not match the resolved tenant")
		}
		return resolved, nil
	}
	if explicit == "" {
		return tc.Require()
	}

	tenantID, err := id.ParseTenantID(explicit)
	if err != nil {
		return nil, dErrors.Validation("tenantUuid", "must be a valid uuid")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, s.translateLookupErr(ctx, err, func() error {
			return dErrors.New(dErrors.CodeTenantNotFound, "Tenant not found")
		}, "tenant")
	}
	if !tenant.Active {
		return nil, dErrors.New(dErrors.CodeTenantInactive, "Tenant is inactive")
	}
	return tenant, nil
}

// authenticate looks the admin up with its hash and verifies the password.
func (s *Service) authenticate(ctx context.Context, tenantID id.TenantID, email, password string) (*adminmodels.Admin, error) {
	admin, err := s.admins.FindByEmailAndTenant(ctx, email, tenantID, true)
	if err != nil {
		err = s.translateLookupErr(ctx, err, errInvalidCredentials, "login")
		if dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			s.verify(ctx, password, timingHash)
		}
		return nil, err
	}
	// The query is tenant scoped; this guards against a store that is not.
	if !admin.BelongsTo(tenantID) {
		s.verify(ctx, password, timingHash)
		return nil, errInvalidCredentials()
	}
	if err := admin.Validate(); err != nil || admin.PasswordHash == "" {
		s.logger.ErrorContext(ctx, "stored admin record failed integrity check",
			"admin_id", admin.ID,
			"tenant_id", tenantID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeAccountInvalid, "Account is invalid, contact your administrator")
	}
	if !s.verify(ctx, password, admin.PasswordHash) {
		return nil, errInvalidCredentials()
	}
	if !admin.IsActive() {
		return nil, errInvalidCredentials()
	}
	return admin.WithoutHash(), nil
}

func (s *Service) verify(ctx context.Context, password, encoded string) (ok bool) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAuthVerifyHash)
	defer func() { span.End(nil) }()
	return s.hasher.Verify(ctx, password, encoded)
}

func (s *Service) issueLogin(admin *adminmodels.Admin) (*models.LoginResult, id.SessionID, error) {
	pair, err := s.tokens.IssuePair(subjectFor(admin))
	if err != nil {
		return nil, id.SessionID{}, err
	}
	sessionID := id.NewSessionID()
	return &models.LoginResult{
		Admin: adminmodels.ToAdminResponse(admin),
		Authentication: models.Authentication{
			AccessToken:  pair.Access.Token,
			TokenType:    models.TokenTypeBearer,
			ExpiresIn:    int64(pair.Access.ExpiresAt.Sub(pair.Access.IssuedAt).Seconds()),
			ExpiresAt:    pair.Access.ExpiresAt,
			Scope:        models.AdminScopes(admin.TenantID.String()),
			RefreshToken: pair.Refresh.Token,
		},
		Session: &models.Session{
			SessionID: sessionID.String(),
			LoginTime: s.now().UTC().Format(time.RFC3339),
		},
	}, sessionID, nil
}
