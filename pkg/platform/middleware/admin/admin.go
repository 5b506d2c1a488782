// Package admin guards platform-operator endpoints (tenant administration)
// with a static API key.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/requestcontext"
	"smartparking/pkg/secrets"
)

type contextKeyOperator struct{}

// Operator returns the X-Admin-Actor-ID recorded for audit attribution, if any.
func Operator(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyOperator{}).(string)
	return v
}

// RequireAdminToken compares X-Admin-Token in constant time. An empty
// expected token disables the endpoints entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if !secrets.Equal(token, expectedToken) {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"configured", expectedToken != "",
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error:            "unauthorized",
					ErrorDescription: "admin token required",
				})
				return
			}

			if actor := r.Header.Get("X-Admin-Actor-ID"); actor != "" {
				ctx = context.WithValue(ctx, contextKeyOperator{}, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
