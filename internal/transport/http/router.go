// Package httptransport assembles the HTTP surface: platform middleware,
// health checks, the operator API and the tenant-scoped administrator API.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "smartparking/internal/admin/handler"
	authhandler "smartparking/internal/auth/handler"
	"smartparking/internal/platform/health"
	tenanthandler "smartparking/internal/tenant/handler"
	tenantmw "smartparking/internal/tenant/middleware"
	"smartparking/internal/tenant/tenantctx"
	adminmw "smartparking/pkg/platform/middleware/admin"
	authmw "smartparking/pkg/platform/middleware/auth"
	"smartparking/pkg/platform/middleware/metadata"
	"smartparking/pkg/platform/middleware/request"
	"smartparking/pkg/platform/middleware/requesttime"
	"smartparking/pkg/platform/middleware/throttle"
)

// TenantPathPrefix is the path form of tenant selection:
// /api/tenants/{tenantId}/admin/login serves /api/admin/login for that tenant.
const TenantPathPrefix = "/api/tenants/{tenantId}"

// Deps are the collaborators the router mounts. Nil optional fields disable
// the matching feature.
type Deps struct {
	Logger *slog.Logger

	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix
	AdminAPIToken  string

	// Gatherer serves /metrics when set.
	Gatherer       prometheus.Gatherer
	RequestMetrics *request.Metrics

	Health   *health.Handler
	Resolver *tenantmw.Resolver
	// AuthThrottle guards the unauthenticated auth endpoints when set.
	AuthThrottle *throttle.Limiter
	Tokens       authmw.AccessTokenValidator

	Auth    *authhandler.Handler
	Admins  *adminhandler.Handler
	Tenants *tenanthandler.Handler
}

// NewRouter builds the root handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.Logger))
	r.Use(metadata.NewMiddleware(d.TrustedProxies).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.RequestMetrics))
	if d.RequestTimeout > 0 {
		r.Use(request.Timeout(d.RequestTimeout))
	}
	if d.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(d.MaxBodyBytes))
	}
	r.Use(request.ContentTypeJSON)

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	if d.Tenants != nil {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.AdminAPIToken, d.Logger))
			d.Tenants.RegisterAdmin(r)
		})
	}

	api := tenantRouter(d)
	for _, pattern := range []string{"/api/admin", "/api/admin/*", "/api/admins", "/api/admins/*", "/api/tenant/*"} {
		r.Handle(pattern, api)
	}
	r.Handle(TenantPathPrefix+"/*", pathScoped(api))
	return r
}

// tenantRouter holds every route that runs inside a resolved tenant.
func tenantRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(d.Resolver.Handler)

	r.Group(func(r chi.Router) {
		if d.AuthThrottle != nil {
			r.Use(d.AuthThrottle.Middleware)
		}
		d.Auth.Register(r)
		d.Admins.RegisterPublic(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Tokens, d.Logger, authmw.WithTenantBinding(tenantctx.ResolvedTenantID)))
		d.Admins.Register(r)
	})
	if d.Tenants != nil {
		d.Tenants.RegisterPublic(r)
	}
	return r
}

// pathScoped maps the remainder of a /api/tenants/{tenantId}/... request
// back onto the /api namespace. Tenant resolution still sees the original
// URL, so the path strategy picks up the tenant segment.
func pathScoped(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.RoutePath = "/api/" + rctx.URLParam("*")
		}
		next.ServeHTTP(w, r)
	})
}
