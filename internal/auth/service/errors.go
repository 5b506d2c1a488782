package service

import (
	"context"
	"errors"

	"smartparking/internal/sentinel"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/requestcontext"
)

// msgInvalidCredentials is the only message a failed login ever returns.
const msgInvalidCredentials = "Invalid email or password"

const msgInvalidRefresh = "Invalid or expired refresh token"

func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeInvalidCredentials, msgInvalidCredentials)
}

func errInvalidRefresh() error {
	return dErrors.New(dErrors.CodeInvalidToken, msgInvalidRefresh)
}

// lookupErrorMapping decides how a store failure during login or refresh
// surfaces. Lookups that miss collapse into the flow's generic rejection.
type lookupErrorMapping struct {
	sentinel  error
	collapse  bool
	code      dErrors.Code
	message   string
	logReason string
}

var lookupErrorMappings = []lookupErrorMapping{
	{sentinel: sentinel.ErrNotFound, collapse: true, logReason: "not_found"},
	{sentinel: sentinel.ErrUnavailable, code: dErrors.CodeTimeout, message: "authentication temporarily unavailable", logReason: "store_unavailable"},
}

// translateLookupErr maps a store error. rejection is returned for lookups
// that miss, so callers choose between invalid credentials and invalid token.
func (s *Service) translateLookupErr(ctx context.Context, err error, rejection func() error, action string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	for _, m := range lookupErrorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		s.logger.DebugContext(ctx, action+" lookup failed",
			"reason", m.logReason,
			"request_id", requestcontext.RequestID(ctx),
		)
		if m.collapse {
			return rejection()
		}
		return dErrors.Wrap(err, m.code, m.message)
	}
	s.logger.ErrorContext(ctx, action+" lookup failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "authentication failed")
}
