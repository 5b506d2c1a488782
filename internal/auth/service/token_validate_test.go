package service

import (
	"context"

	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
)

func (s *ServiceSuite) TestValidateToken() {
	ctx := context.Background()
	pair := s.issuePair()

	s.Run("valid access token", func() {
		v := s.service.ValidateToken(ctx, s.tc, pair.Access.Token)
		s.True(v.Valid)
		s.Require().NotNil(v.Admin)
		s.Equal(s.admin.ID.String(), v.Admin.ID)
		s.Equal(s.tenant.ID.String(), v.Admin.TenantID)
		s.Equal(testEmail, v.Admin.Email)
		s.Require().NotNil(v.ExpiresAt)
		s.Equal(pair.Access.ExpiresAt, v.ExpiresAt.UTC())
	})

	s.Run("valid without a resolved tenant", func() {
		s.True(s.service.ValidateToken(ctx, tenantctx.Empty(), pair.Access.Token).Valid)
	})

	s.Run("refresh token is not an access token", func() {
		v := s.service.ValidateToken(ctx, s.tc, pair.Refresh.Token)
		s.False(v.Valid)
		s.Nil(v.Admin)
	})

	s.Run("other tenant", func() {
		other := *s.tenant
		other.ID = id.NewTenantID()
		s.False(s.service.ValidateToken(ctx, tenantctx.New(&other), pair.Access.Token).Valid)
	})

	s.Run("tampered", func() {
		tampered := pair.Access.Token[:len(pair.Access.Token)-2] + "xx"
		s.False(s.service.ValidateToken(ctx, s.tc, tampered).Valid)
	})
}
