package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smartparking/internal/admin/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/requestcontext"
)

// Service defines the administrator operations the handler needs.
type Service interface {
	Create(ctx context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest) (*models.Admin, error)
	Register(ctx context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest) (*models.Admin, error)
	Get(ctx context.Context, tc *tenantctx.Context, adminID id.AdminID) (*models.Admin, error)
	List(ctx context.Context, tc *tenantctx.Context) ([]*models.Admin, error)
	Update(ctx context.Context, tc *tenantctx.Context, adminID id.AdminID, req *models.UpdateAdminRequest) (*models.Admin, error)
	ChangePassword(ctx context.Context, tc *tenantctx.Context, adminID id.AdminID, req *models.ChangePasswordRequest) error
	Delete(ctx context.Context, tc *tenantctx.Context, actorID, adminID id.AdminID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the administrator routes. The caller wraps r with tenant
// resolution and the access-token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin", h.HandleList)
	r.Get("/api/admin/me", h.HandleMe)
	r.Get("/api/admins", h.HandleList)
	r.Post("/api/admins", h.HandleCreate)
	r.Post("/api/admins/me/password", h.HandleChangePassword)
	r.Get("/api/admins/{adminId}", h.HandleGet)
	r.Put("/api/admins/{adminId}", h.HandleUpdate)
	r.Delete("/api/admins/{adminId}", h.HandleDelete)
}

// RegisterPublic mounts self-registration. It needs a resolved tenant but no
// access token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/admin", h.HandleRegister)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[models.CreateAdminRequest](w, r, h.logger)
	if !ok {
		return
	}
	admin, err := h.service.Register(ctx, tenantctx.From(ctx), req)
	if err != nil {
		h.logFailure(ctx, "register admin failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteDataMessage(w, http.StatusCreated, models.ToAdminResponse(admin), "Administrator created successfully")
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[models.CreateAdminRequest](w, r, h.logger)
	if !ok {
		return
	}
	admin, err := h.service.Create(ctx, tenantctx.From(ctx), req)
	if err != nil {
		h.logFailure(ctx, "create admin failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteDataMessage(w, http.StatusCreated, models.ToAdminResponse(admin), "Administrator created successfully")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admins, err := h.service.List(ctx, tenantctx.From(ctx))
	if err != nil {
		h.logFailure(ctx, "list admins failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteDataMessage(w, http.StatusOK, models.ToAdminResponses(admins), "Administrators retrieved successfully")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := parseAdminID(w, r)
	if !ok {
		return
	}
	admin, err := h.service.Get(ctx, tenantctx.From(ctx), adminID)
	if err != nil {
		h.logFailure(ctx, "get admin failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, models.ToAdminResponse(admin))
}

// HandleMe returns the administrator the access token was issued to.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admin, err := h.service.Get(ctx, tenantctx.From(ctx), principal.AdminID)
	if err != nil {
		h.logFailure(ctx, "get current admin failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, models.ToAdminResponse(admin))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := parseAdminID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[models.UpdateAdminRequest](w, r, h.logger)
	if !ok {
		return
	}
	admin, err := h.service.Update(ctx, tenantctx.From(ctx), adminID, req)
	if err != nil {
		h.logFailure(ctx, "update admin failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteDataMessage(w, http.StatusOK, models.ToAdminResponse(admin), "Administrator updated successfully")
}

// HandleChangePassword rotates the caller's own password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[models.ChangePasswordRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.ChangePassword(ctx, tenantctx.From(ctx), principal.AdminID, req); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			h.logFailure(ctx, "change password failed", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteDataMessage(w, http.StatusOK, nil, "Password changed successfully")
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	adminID, ok := parseAdminID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, tenantctx.From(ctx), principal.AdminID, adminID); err != nil {
		h.logFailure(ctx, "delete admin failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseAdminID(w http.ResponseWriter, r *http.Request) (id.AdminID, bool) {
	adminID, err := id.ParseAdminID(chi.URLParam(r, "adminId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid admin ID"))
		return id.AdminID{}, false
	}
	return adminID, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
