package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"smartparking/internal/auth/events"
	"smartparking/internal/auth/metrics"
	"smartparking/internal/auth/models"
	"smartparking/internal/sentinel"
	tenantmodels "smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/requestcontext"
)

func (s *ServiceSuite) loginRequest() *models.LoginRequest {
	return &models.LoginRequest{Email: testEmail, Password: testPassword}
}

func (s *ServiceSuite) TestLoginSuccess() {
	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.7",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(s.adminCopy(), nil)
	s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, storedHash).Return(true)
	s.mockAdmins.EXPECT().RecordLogin(gomock.Any(), s.admin.ID, s.now).Return(nil)

	out, err := s.service.Login(ctx, s.tc, &models.LoginRequest{Email: " Admin@ACME.com ", Password: testPassword})
	s.Require().NoError(err)

	res := out.Result
	s.Equal(s.admin.ID.String(), res.Admin.ID)
	s.Equal(s.tenant.ID.String(), res.Admin.TenantUUID)
	s.Require().NotNil(res.Admin.LastLoginAt)
	auth := res.Authentication
	s.NotEmpty(auth.AccessToken)
	s.NotEmpty(auth.RefreshToken)
	s.Equal("Bearer", auth.TokenType)
	s.Equal(int64(3600), auth.ExpiresIn)
	s.True(auth.ExpiresAt.After(s.now))
	s.Equal("admin:full read:all write:all tenant:"+s.tenant.ID.String(), auth.Scope)
	s.Require().NotNil(res.Session)
	_, err = id.ParseSessionID(res.Session.SessionID)
	s.NoError(err)
	s.Equal("2026-03-01T12:00:00Z", res.Session.LoginTime)
	s.Equal(3, out.RateLimitRemaining)

	claims, err := s.tokens.ValidateAccess(auth.AccessToken)
	s.Require().NoError(err)
	s.Equal(s.admin.ID, claims.AdminID)
	s.Equal(s.tenant.ID, claims.TenantID)

	ev, ok := s.publisher.last()
	s.Require().True(ok)
	s.Equal(events.TypeLoginSucceeded, ev.Type)
	s.Equal(res.Session.SessionID, ev.SessionID)
	s.Equal("203.0.113.7", ev.IP)
	s.Equal("Chrome", ev.Device.Browser)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess)))
}

func (s *ServiceSuite) TestLoginSurvivesRecordLoginFailure() {
	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(s.adminCopy(), nil)
	s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, storedHash).Return(true)
	s.mockAdmins.EXPECT().RecordLogin(gomock.Any(), s.admin.ID, gomock.Any()).Return(sentinel.ErrUnavailable)

	out, err := s.service.Login(context.Background(), s.tc, s.loginRequest())
	s.Require().NoError(err)
	s.Nil(out.Result.Admin.LastLoginAt)
}

func (s *ServiceSuite) TestLoginCredentialFailuresAreIndistinguishable() {
	ctx := context.Background()

	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(s.adminCopy(), nil)
	s.mockHasher.EXPECT().Verify(gomock.Any(), "Wrong!pass1", storedHash).Return(false)
	_, wrongPassword := s.service.Login(ctx, s.tc, &models.LoginRequest{Email: testEmail, Password: "Wrong!pass1"})

	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), "ghost@acme.com", s.tenant.ID, true).Return(nil, sentinel.ErrNotFound)
	s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, timingHash).Return(false)
	_, unknownEmail := s.service.Login(ctx, s.tc, &models.LoginRequest{Email: "ghost@acme.com", Password: testPassword})

	other := s.adminCopy()
	other.TenantID = id.NewTenantID()
	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(other, nil)
	s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, timingHash).Return(false)
	_, wrongTenant := s.service.Login(ctx, s.tc, s.loginRequest())

	for _, err := range []error{wrongPassword, unknownEmail, wrongTenant} {
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
		s.Equal(wrongPassword.Error(), err.Error())
	}
	s.Contains(wrongPassword.Error(), "Invalid email or password")

	ev, ok := s.publisher.last()
	s.Require().True(ok)
	s.Equal(events.TypeLoginFailed, ev.Type)
	s.Empty(ev.AdminID)
}

func (s *ServiceSuite) TestLoginInactiveAdmin() {
	inactive := s.adminCopy()
	inactive.Active = false
	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(inactive, nil)
	s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, storedHash).Return(true)

	_, err := s.service.Login(context.Background(), s.tc, s.loginRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
}

func (s *ServiceSuite) TestLoginCorruptedRecordIsAccountInvalid() {
	corrupted := s.adminCopy()
	corrupted.PasswordHash = "not-a-hash"
	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(corrupted, nil)

	_, err := s.service.Login(context.Background(), s.tc, s.loginRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeAccountInvalid))
}

func (s *ServiceSuite) TestLoginRequiresTenant() {
	_, err := s.service.Login(context.Background(), tenantctx.Empty(), s.loginRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeTenantRequired))

	_, err = s.service.Login(context.Background(), nil, s.loginRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeTenantRequired))
}

func (s *ServiceSuite) TestLoginValidation() {
	s.Run("bad email", func() {
		_, err := s.service.Login(context.Background(), s.tc, &models.LoginRequest{Email: "nope", Password: testPassword})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Equal("email", de.Field)
	})

	s.Run("empty password", func() {
		_, err := s.service.Login(context.Background(), s.tc, &models.LoginRequest{Email: testEmail})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestLoginExplicitTenant() {
	ctx := context.Background()

	s.Run("mismatch with resolved tenant", func() {
		req := s.loginRequest()
		req.TenantUUID = id.NewTenantID().String()
		_, err := s.service.Login(ctx, s.tc, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTenant))
	})

	s.Run("stands in when nothing was resolved", func() {
		req := s.loginRequest()
		req.TenantUUID = s.tenant.ID.String()
		s.mockTenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(s.adminCopy(), nil)
		s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, storedHash).Return(true)
		s.mockAdmins.EXPECT().RecordLogin(gomock.Any(), s.admin.ID, gomock.Any()).Return(nil)

		out, err := s.service.Login(ctx, tenantctx.Empty(), req)
		s.Require().NoError(err)
		s.Equal(s.admin.ID.String(), out.Result.Admin.ID)
	})

	s.Run("inactive explicit tenant", func() {
		inactive, err := tenantmodels.NewTenant(id.NewTenantID(), "closed", "Closed", "", tenantmodels.Settings{}, s.now)
		s.Require().NoError(err)
		s.Require().NoError(inactive.Deactivate(s.now))
		req := s.loginRequest()
		req.TenantUUID = inactive.ID.String()
		s.mockTenants.EXPECT().FindByID(gomock.Any(), inactive.ID).Return(inactive, nil)

		_, err = s.service.Login(ctx, tenantctx.Empty(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeTenantInactive))
	})

	s.Run("unknown explicit tenant", func() {
		req := s.loginRequest()
		req.TenantUUID = id.NewTenantID().String()
		s.mockTenants.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Login(ctx, tenantctx.Empty(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeTenantNotFound))
	})
}

func (s *ServiceSuite) TestLoginRateLimited() {
	ctx := requestcontext.WithClientMetadata(context.Background(), "198.51.100.4", "")

	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(s.adminCopy(), nil).Times(3)
	s.mockHasher.EXPECT().Verify(gomock.Any(), "Wrong!pass1", storedHash).Return(false).Times(3)
	for range 3 {
		_, err := s.service.Login(ctx, s.tc, &models.LoginRequest{Email: testEmail, Password: "Wrong!pass1"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	}

	// Over the limit the store is not consulted, even with the right password.
	_, err := s.service.Login(ctx, s.tc, s.loginRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeRateLimited)))

	s.advance(16 * time.Minute)
	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).Return(s.adminCopy(), nil)
	s.mockHasher.EXPECT().Verify(gomock.Any(), testPassword, storedHash).Return(true)
	s.mockAdmins.EXPECT().RecordLogin(gomock.Any(), s.admin.ID, gomock.Any()).Return(nil)
	_, err = s.service.Login(ctx, s.tc, s.loginRequest())
	s.NoError(err)
}

func (s *ServiceSuite) TestLoginStoreFailureIsInternal() {
	s.mockAdmins.EXPECT().FindByEmailAndTenant(gomock.Any(), testEmail, s.tenant.ID, true).
		Return(nil, context.DeadlineExceeded)

	_, err := s.service.Login(context.Background(), s.tc, s.loginRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
