package service

import (
	"context"
	"time"

	adminmodels "smartparking/internal/admin/models"
	"smartparking/internal/auth/metrics"
	"smartparking/internal/auth/models"
	"smartparking/internal/auth/token"
	"smartparking/internal/tenant/tenantctx"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/tracer"
	"smartparking/pkg/requestcontext"
)

// Refresh exchanges a refresh token for a new access token. The admin and
// its tenant must still be active. With rotation the presented token is
// consumed and a replacement is returned; presenting it again fails.
func (s *Service) Refresh(ctx context.Context, tc *tenantctx.Context, refreshToken string) (res *models.RefreshResult, err error) {
	start := time.Now()
	outcome := metrics.OutcomeError
	ctx, span := s.tracer.Start(ctx, tracer.SpanAuthRefresh)
	defer func() {
		s.metrics.ObserveRefresh(outcome, time.Since(start).Seconds())
		span.SetAttributes(tracer.String(tracer.AttrOutcome, outcome))
		span.End(err)
	}()

	claims, err := s.tokens.Validate(refreshToken, token.KindRefresh, 0)
	if err != nil {
		outcome = metrics.OutcomeInvalidToken
		s.logger.InfoContext(ctx, "refresh token rejected",
			"reason", token.Reason(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, errInvalidRefresh()
	}

	admin, err := s.refreshSubject(ctx, tc, claims)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidToken) {
			outcome = metrics.OutcomeInvalidToken
		}
		return nil, err
	}

	if err := s.spend(ctx, claims); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidToken) {
			outcome = metrics.OutcomeReplayed
		}
		return nil, err
	}

	access, err := s.tokens.Issue(subjectFor(admin), token.KindAccess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}
	res = &models.RefreshResult{
		AccessToken: access.Token,
		TokenType:   models.TokenTypeBearer,
		ExpiresIn:   int64(access.ExpiresAt.Sub(access.IssuedAt).Seconds()),
		ExpiresAt:   access.ExpiresAt,
	}
	if s.cfg.RotateRefreshTokens {
		refresh, err := s.tokens.Issue(subjectFor(admin), token.KindRefresh)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue refresh token")
		}
		res.RefreshToken = refresh.Token
	}

	outcome = metrics.OutcomeSuccess
	s.logger.InfoContext(ctx, "token_refreshed",
		"admin_id", admin.ID,
		"tenant_id", admin.TenantID,
		"rotated", s.cfg.RotateRefreshTokens,
		"request_id", requestcontext.RequestID(ctx),
	)
	return res, nil
}

// refreshSubject reloads the admin named by claims and checks it and its
// tenant are still allowed to hold tokens.
func (s *Service) refreshSubject(ctx context.Context, tc *tenantctx.Context, claims *token.Claims) (*adminmodels.Admin, error) {
	adminID, _ := claims.AdminID()
	tenantID, _ := claims.Tenant()
	if resolved, ok := tc.Tenant(); ok && resolved.ID != tenantID {
		return nil, errInvalidRefresh()
	}

	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, s.translateLookupErr(ctx, err, errInvalidRefresh, "refresh")
	}
	if !admin.BelongsTo(tenantID) || !admin.IsActive() {
		return nil, errInvalidRefresh()
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, s.translateLookupErr(ctx, err, errInvalidRefresh, "refresh")
	}
	if !tenant.Active {
		return nil, errInvalidRefresh()
	}
	return admin, nil
}

// spend enforces single use of the refresh token. Without rotation it only
// rejects tokens revoked by logout. Ledger failures fail closed.
func (s *Service) spend(ctx context.Context, claims *token.Claims) error {
	if s.ledger == nil {
		return nil
	}
	if !s.cfg.RotateRefreshTokens {
		consumed, err := s.ledger.IsConsumed(ctx, claims.ID)
		if err != nil {
			return s.ledgerFailure(ctx, err)
		}
		if consumed {
			return errInvalidRefresh()
		}
		return nil
	}

	first, err := s.ledger.Consume(ctx, claims.ID, claims.Remaining(s.now()))
	if err != nil {
		return s.ledgerFailure(ctx, err)
	}
	if !first {
		s.metrics.IncrementRefreshTokenReuse()
		s.logger.WarnContext(ctx, "refresh token replayed",
			"admin_id", claims.Subject,
			"tenant_id", claims.TenantID,
			"ip", requestcontext.ClientIP(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		return errInvalidRefresh()
	}
	return nil
}

func (s *Service) ledgerFailure(ctx context.Context, err error) error {
	s.metrics.IncrementLedgerWriteFailure()
	s.logger.ErrorContext(ctx, "refresh token ledger unavailable",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeTimeout, "token refresh temporarily unavailable")
}
