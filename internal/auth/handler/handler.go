package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"smartparking/internal/auth/models"
	"smartparking/internal/auth/service"
	"smartparking/internal/platform/privacy"
	"smartparking/internal/tenant/tenantctx"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/requestcontext"
)

// Service defines the authentication operations the handler needs.
type Service interface {
	Login(ctx context.Context, tc *tenantctx.Context, req *models.LoginRequest) (*service.LoginOutcome, error)
	Refresh(ctx context.Context, tc *tenantctx.Context, refreshToken string) (*models.RefreshResult, error)
	ValidateToken(ctx context.Context, tc *tenantctx.Context, accessToken string) models.TokenValidation
	Logout(ctx context.Context, refreshToken string)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authentication endpoints. They run behind tenant
// resolution but not behind the access-token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/admin/login", h.HandleLogin)
	r.Post("/api/admin/refresh-token", h.HandleRefresh)
	r.Post("/api/admin/refresh", h.HandleRefresh)
	r.Post("/api/admin/validate-token", h.HandleValidateToken)
	r.Post("/api/admin/logout", h.HandleLogout)
}

// HandleLogin authenticates an administrator and returns a token pair.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	noStore(w)

	req, ok := httputil.Decode[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}

	out, err := h.service.Login(ctx, tenantctx.From(ctx), req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.InfoContext(ctx, "login rejected",
				"email", privacy.MaskEmail(req.Email),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		} else {
			h.logger.ErrorContext(ctx, "login failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("X-Token-Expires", out.Result.Authentication.ExpiresAt.UTC().Format(time.RFC3339))
	if out.RateLimitRemaining >= 0 {
		w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(out.RateLimitRemaining))
	}
	httputil.WriteDataMessage(w, http.StatusOK, out.Result, "Login successful")
}

// HandleRefresh serves both /refresh-token and /refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	noStore(w)

	req, ok := httputil.Decode[models.RefreshRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.Refresh(ctx, tenantctx.From(ctx), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("X-Token-Expires", res.ExpiresAt.UTC().Format(time.RFC3339))
	httputil.WriteDataMessage(w, http.StatusOK, res, "Token refreshed successfully")
}

// HandleValidateToken always answers 200; validity is in the body. The
// token may come in the body or as a bearer Authorization header.
func (h *Handler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	noStore(w)

	var tok string
	if r.ContentLength != 0 {
		req, ok := httputil.Decode[models.ValidateTokenRequest](w, r, h.logger)
		if !ok {
			return
		}
		tok = strings.TrimSpace(req.Token)
	}
	if tok == "" {
		tok = bearerToken(r)
	}

	v := h.service.ValidateToken(ctx, tenantctx.From(ctx), tok)
	msg := "Token is valid"
	if !v.Valid {
		msg = "Token is invalid or expired"
	}
	httputil.WriteDataMessage(w, http.StatusOK, v, msg)
}

// HandleLogout revokes the refresh token if one is sent. It always succeeds
// so clients can clear local state unconditionally.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	noStore(w)

	var tok string
	if r.ContentLength != 0 {
		req, ok := httputil.Decode[models.LogoutRequest](w, r, h.logger)
		if !ok {
			return
		}
		tok = strings.TrimSpace(req.RefreshToken)
	}
	h.service.Logout(ctx, tok)
	httputil.WriteDataMessage(w, http.StatusOK, nil, "Logout successful")
}

func noStore(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
}

func bearerToken(r *http.Request) string {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
