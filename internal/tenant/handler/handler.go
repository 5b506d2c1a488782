package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/platform/middleware/admin"
	"smartparking/pkg/requestcontext"
)

// Service defines the tenant administration operations the handler needs.
type Service interface {
	Create(ctx context.Context, req *models.CreateTenantRequest) (*models.Tenant, error)
	GetByRef(ctx context.Context, ref string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	Activate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Deactivate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	UpdateSettings(ctx context.Context, tenantID id.TenantID, settings models.Settings) (*models.Tenant, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the platform-operator routes. The caller guards them
// with the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/tenants", h.HandleCreate)
	r.Get("/api/tenants", h.HandleList)
	r.Get("/api/tenants/{tenantId}", h.HandleGet)
	r.Post("/api/tenants/{tenantId}/activate", h.HandleActivate)
	r.Post("/api/tenants/{tenantId}/deactivate", h.HandleDeactivate)
	r.Put("/api/tenants/{tenantId}/settings", h.HandleUpdateSettings)
}

// RegisterPublic mounts routes that run behind tenant resolution.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/api/tenant/current", h.HandleCurrent)
}

// HandleCreate creates a tenant.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[models.CreateTenantRequest](w, r, h.logger)
	if !ok {
		return
	}

	tenant, err := h.service.Create(ctx, req)
	if err != nil {
		h.logFailure(ctx, "create tenant failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, models.ToTenantResponse(tenant))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenants, err := h.service.List(ctx)
	if err != nil {
		h.logFailure(ctx, "list tenants failed", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]models.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, models.ToTenantResponse(t))
	}
	httputil.WriteData(w, http.StatusOK, out)
}

// HandleGet accepts either the tenant UUID or its slug.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, err := h.service.GetByRef(ctx, chi.URLParam(r, "tenantId"))
	if err != nil {
		h.logFailure(ctx, "get tenant failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, models.ToTenantResponse(tenant))
}

// HandleDeactivate blocks every request for the tenant until reactivated.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "deactivate tenant failed", h.service.Deactivate)
}

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "activate tenant failed", h.service.Activate)
}

func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := h.resolveID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[models.UpdateSettingsRequest](w, r, h.logger)
	if !ok {
		return
	}
	tenant, err := h.service.UpdateSettings(ctx, tenantID, req.Settings)
	if err != nil {
		h.logFailure(ctx, "update tenant settings failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, models.ToTenantResponse(tenant))
}

// HandleCurrent returns the public view of the tenant resolved for the request.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantctx.From(r.Context()).Require()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, models.ToPublicTenantResponse(tenant))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, failure string,
	apply func(context.Context, id.TenantID) (*models.Tenant, error)) {
	ctx := r.Context()
	tenantID, ok := h.resolveID(w, r)
	if !ok {
		return
	}
	tenant, err := apply(ctx, tenantID)
	if err != nil {
		h.logFailure(ctx, failure, err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "tenant status changed",
		"tenant_id", tenant.ID,
		"is_active", tenant.Active,
		"operator", admin.Operator(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteData(w, http.StatusOK, models.ToTenantResponse(tenant))
}

// resolveID maps the {tenantId} path segment, a UUID or a slug, to a tenant id.
func (h *Handler) resolveID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	ref := chi.URLParam(r, "tenantId")
	if tenantID, err := id.ParseTenantID(ref); err == nil {
		return tenantID, true
	}
	tenant, err := h.service.GetByRef(r.Context(), ref)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logFailure(r.Context(), "resolve tenant failed", err)
		}
		httputil.WriteError(w, err)
		return id.TenantID{}, false
	}
	return tenant.ID, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
