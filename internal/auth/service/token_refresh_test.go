package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"smartparking/internal/auth/token"
	"smartparking/internal/sentinel"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
)

func (s *ServiceSuite) issuePair() *token.Pair {
	pair, err := s.tokens.IssuePair(subjectFor(s.admin))
	s.Require().NoError(err)
	return pair
}

func (s *ServiceSuite) expectSubjectLookups(times int) {
	s.mockAdmins.EXPECT().FindByID(gomock.Any(), s.admin.ID).Return(s.adminCopy(), nil).Times(times)
	s.mockTenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil).Times(times)
}

func (s *ServiceSuite) TestRefreshRotates() {
	ctx := context.Background()
	pair := s.issuePair()
	s.expectSubjectLookups(3)

	s.advance(time.Minute)
	res, err := s.service.Refresh(ctx, s.tc, pair.Refresh.Token)
	s.Require().NoError(err)
	s.NotEmpty(res.AccessToken)
	s.NotEqual(pair.Access.Token, res.AccessToken)
	s.Equal("Bearer", res.TokenType)
	s.Equal(int64(3600), res.ExpiresIn)
	s.Require().NotEmpty(res.RefreshToken)

	principal, err := s.tokens.ValidateAccess(res.AccessToken)
	s.Require().NoError(err)
	s.Equal(s.admin.ID, principal.AdminID)
	s.Equal(s.admin.Email, principal.Email)

	_, err = s.service.Refresh(ctx, s.tc, pair.Refresh.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken), "replayed refresh token must be rejected")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RefreshTokenReuse))

	_, err = s.service.Refresh(ctx, s.tc, res.RefreshToken)
	s.NoError(err, "rotated refresh token must be usable")
}

func (s *ServiceSuite) TestRefreshConcurrentUseSucceedsOnce() {
	pair := s.issuePair()
	s.mockAdmins.EXPECT().FindByID(gomock.Any(), s.admin.ID).Return(s.adminCopy(), nil).AnyTimes()
	s.mockTenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil).AnyTimes()

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.Refresh(context.Background(), s.tc, pair.Refresh.Token); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, successes)
}

func (s *ServiceSuite) TestRefreshWithoutRotation() {
	svc := s.newService(Config{RotateRefreshTokens: false})
	ctx := context.Background()
	pair := s.issuePair()
	s.expectSubjectLookups(3)

	for range 2 {
		res, err := svc.Refresh(ctx, s.tc, pair.Refresh.Token)
		s.Require().NoError(err)
		s.Empty(res.RefreshToken)
	}

	svc.Logout(ctx, pair.Refresh.Token)
	_, err := svc.Refresh(ctx, s.tc, pair.Refresh.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *ServiceSuite) TestRefreshRejects() {
	ctx := context.Background()

	s.Run("access token presented as refresh", func() {
		pair := s.issuePair()
		_, err := s.service.Refresh(ctx, s.tc, pair.Access.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("garbage", func() {
		_, err := s.service.Refresh(ctx, s.tc, "not.a.token")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("token of another tenant", func() {
		pair := s.issuePair()
		other := *s.tenant
		other.ID = id.NewTenantID()
		_, err := s.service.Refresh(ctx, tenantctx.New(&other), pair.Refresh.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("deleted admin", func() {
		pair := s.issuePair()
		s.mockAdmins.EXPECT().FindByID(gomock.Any(), s.admin.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Refresh(ctx, s.tc, pair.Refresh.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("deactivated tenant", func() {
		pair := s.issuePair()
		inactive := *s.tenant
		s.Require().NoError(inactive.Deactivate(s.now))
		s.mockAdmins.EXPECT().FindByID(gomock.Any(), s.admin.ID).Return(s.adminCopy(), nil)
		s.mockTenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(&inactive, nil)
		_, err := s.service.Refresh(ctx, tenantctx.Empty(), pair.Refresh.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("expired", func() {
		pair := s.issuePair()
		s.advance(8 * 24 * time.Hour)
		_, err := s.service.Refresh(ctx, s.tc, pair.Refresh.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})
}

func (s *ServiceSuite) TestLogoutRevokesRefreshToken() {
	ctx := context.Background()
	pair := s.issuePair()

	s.service.Logout(ctx, pair.Refresh.Token)
	consumed, err := s.ledger.IsConsumed(ctx, pair.Refresh.ID)
	s.Require().NoError(err)
	s.True(consumed)

	ev, ok := s.publisher.last()
	s.Require().True(ok)
	s.Equal(s.admin.ID.String(), ev.AdminID)

	s.mockAdmins.EXPECT().FindByID(gomock.Any(), s.admin.ID).Return(s.adminCopy(), nil)
	s.mockTenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
	_, err = s.service.Refresh(ctx, s.tc, pair.Refresh.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *ServiceSuite) TestLogoutIgnoresBadInput() {
	s.service.Logout(context.Background(), "")
	s.service.Logout(context.Background(), "garbage")
	_, ok := s.publisher.last()
	s.False(ok)
}
