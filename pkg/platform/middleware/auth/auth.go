package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "smartparking/pkg/domain"
	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/requestcontext"
)

// AccessTokenValidator validates a bearer access token and returns the
// principal it asserts. Refresh tokens must be rejected.
type AccessTokenValidator interface {
	ValidateAccess(token string) (*requestcontext.Principal, error)
}

// TenantResolver reports the tenant resolved for the current request.
type TenantResolver func(ctx context.Context) (id.TenantID, bool)

type options struct {
	tenant TenantResolver
}

type Option func(*options)

// WithTenantBinding rejects tokens whose tenant differs from the tenant the
// request was resolved to. Requests without a resolved tenant are rejected too.
func WithTenantBinding(resolver TenantResolver) Option {
	return func(o *options) {
		o.tenant = resolver
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="smartparking"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized", ErrorDescription: desc})
}

// RequireAuth validates the bearer token and stores the principal in context.
func RequireAuth(validator AccessTokenValidator, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.ValidateAccess(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if o.tenant != nil {
				tenantID, resolved := o.tenant(ctx)
				if !resolved || tenantID != principal.TenantID {
					logger.WarnContext(ctx, "forbidden - token tenant mismatch",
						"token_tenant_id", principal.TenantID.String(),
						"resolved", resolved,
						"request_id", requestID,
					)
					httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{
						Error:            "forbidden",
						ErrorDescription: "Token is not valid for this tenant",
					})
					return
				}
			}

			ctx = requestcontext.WithPrincipal(ctx, *principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
