package service

import (
	"context"

	"smartparking/internal/auth/events"
	"smartparking/internal/auth/token"
	"smartparking/pkg/platform/tracer"
	"smartparking/pkg/requestcontext"
)

// Logout revokes refreshToken when one is given. It is best effort: an
// invalid token or a ledger failure is logged and otherwise ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAuthLogout)
	defer func() { span.End(nil) }()

	if refreshToken == "" {
		return
	}
	claims, err := s.tokens.Validate(refreshToken, token.KindRefresh, 0)
	if err != nil {
		s.logger.DebugContext(ctx, "logout with unusable refresh token",
			"reason", token.Reason(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	if s.ledger != nil {
		if _, err := s.ledger.Consume(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
			s.metrics.IncrementLedgerWriteFailure()
			s.logger.ErrorContext(ctx, "failed to revoke refresh token on logout",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	s.publish(ctx, events.LoginEvent{
		Type:     events.TypeLogout,
		AdminID:  claims.Subject,
		TenantID: claims.TenantID,
		Email:    claims.Email,
	})
	s.logger.InfoContext(ctx, "admin_logout",
		"admin_id", claims.Subject,
		"tenant_id", claims.TenantID,
		"request_id", requestcontext.RequestID(ctx),
	)
}
