package service

import (
	"context"

	"smartparking/internal/auth/models"
	"smartparking/internal/auth/token"
	"smartparking/internal/tenant/tenantctx"
	"smartparking/pkg/requestcontext"
)

// ValidateToken reports whether an access token is valid for the resolved
// tenant. It never fails; every problem is an invalid result.
func (s *Service) ValidateToken(ctx context.Context, tc *tenantctx.Context, accessToken string) models.TokenValidation {
	claims, err := s.tokens.Validate(accessToken, token.KindAccess, 0)
	if err != nil {
		s.logger.DebugContext(ctx, "access token rejected",
			"reason", token.Reason(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.TokenValidation{Valid: false}
	}
	if resolved, ok := tc.Tenant(); ok && resolved.ID.String() != claims.TenantID {
		return models.TokenValidation{Valid: false}
	}

	exp := claims.ExpiresAt.Time
	return models.TokenValidation{
		Valid: true,
		Admin: &models.TokenAdmin{
			ID:       claims.Subject,
			TenantID: claims.TenantID,
			Email:    claims.Email,
		},
		ExpiresAt: &exp,
	}
}
