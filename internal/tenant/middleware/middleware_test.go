package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	tenantmetrics "smartparking/internal/tenant/metrics"
	"smartparking/internal/tenant/models"
	"smartparking/internal/tenant/store"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
)

type MiddlewareSuite struct {
	suite.Suite
	store    *store.InMemory
	metrics  *tenantmetrics.Metrics
	resolver *Resolver
	active   *models.Tenant
	inactive *models.Tenant
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	ctx := context.Background()
	s.store = store.NewInMemory()
	now := time.Now()

	var err error
	s.active, err = models.NewTenant(id.NewTenantID(), "acme", "Acme", "", models.Settings{}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, s.active))

	s.inactive, err = models.NewTenant(id.NewTenantID(), "dormant", "Dormant", "", models.Settings{}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.inactive.Deactivate(now))
	s.Require().NoError(s.store.Create(ctx, s.inactive))

	s.metrics = tenantmetrics.New(prometheus.NewRegistry())
	s.resolver = New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithMetrics(s.metrics))
}

// serve runs the middleware and returns the recorder plus the tenant context
// seen by the next handler (nil if next was not reached).
func (s *MiddlewareSuite) serve(req *http.Request) (*httptest.ResponseRecorder, *tenantctx.Context) {
	var seen *tenantctx.Context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = tenantctx.From(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	rr := httptest.NewRecorder()
	s.resolver.Handler(next).ServeHTTP(rr, req)
	return rr, seen
}

func (s *MiddlewareSuite) errorCode(rr *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func (s *MiddlewareSuite) TestResolvesSubdomain() {
	req := httptest.NewRequest(http.MethodGet, "http://acme.parking.io/api/admins", nil)
	rr, tc := s.serve(req)

	s.Equal(http.StatusNoContent, rr.Code)
	s.Require().NotNil(tc)
	tenant, err := tc.Require()
	s.Require().NoError(err)
	s.Equal(s.active.ID, tenant.ID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues("subdomain", tenantmetrics.OutcomeResolved)))
}

func (s *MiddlewareSuite) TestResolvesHeaderByUUID() {
	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/api/admins", nil)
	req.Header.Set("X-Tenant-ID", s.active.ID.String())
	rr, tc := s.serve(req)

	s.Equal(http.StatusNoContent, rr.Code)
	s.True(tc.HasTenant())
}

func (s *MiddlewareSuite) TestResolvesPathParam() {
	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/api/tenants/acme/admins", nil)
	rr, tc := s.serve(req)

	s.Equal(http.StatusNoContent, rr.Code)
	s.True(tc.HasTenant())
}

func (s *MiddlewareSuite) TestTenantRequired() {
	req := httptest.NewRequest(http.MethodPost, "http://localhost:8080/api/admin/login", nil)
	rr, tc := s.serve(req)

	s.Nil(tc)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("TENANT_REQUIRED", s.errorCode(rr))
}

func (s *MiddlewareSuite) TestTenantNotFound() {
	req := httptest.NewRequest(http.MethodGet, "http://ghost.parking.io/api/admins", nil)
	rr, tc := s.serve(req)

	s.Nil(tc)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("TENANT_NOT_FOUND", s.errorCode(rr))
}

func (s *MiddlewareSuite) TestInactiveIsNotReportedAsNotFound() {
	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/admins", nil)
	req.Header.Set("X-Tenant-ID", "dormant")
	rr, _ := s.serve(req)

	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("TENANT_INACTIVE", s.errorCode(rr))
}

func (s *MiddlewareSuite) TestInvalidHeader() {
	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/admins", nil)
	req.Header.Set("X-Tenant-ID", "bad slug!")
	rr, _ := s.serve(req)

	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("INVALID_TENANT", s.errorCode(rr))
}

func (s *MiddlewareSuite) TestPublicPaths() {
	s.Run("no candidate proceeds tenant-less", func() {
		rr, tc := s.serve(httptest.NewRequest(http.MethodGet, "http://localhost/health/ready", nil))
		s.Equal(http.StatusNoContent, rr.Code)
		s.False(tc.HasTenant())
	})

	s.Run("failed lookup still proceeds", func() {
		rr, tc := s.serve(httptest.NewRequest(http.MethodGet, "http://ghost.parking.io/api/docs/index.html", nil))
		s.Equal(http.StatusNoContent, rr.Code)
		s.False(tc.HasTenant())
	})

	s.Run("valid candidate is still resolved", func() {
		rr, tc := s.serve(httptest.NewRequest(http.MethodGet, "http://acme.parking.io/health", nil))
		s.Equal(http.StatusNoContent, rr.Code)
		s.True(tc.HasTenant())
	})
}

type failingLookup struct{}

func (failingLookup) FindByID(context.Context, id.TenantID) (*models.Tenant, error) {
	return nil, errors.New("pq: connection refused on 10.0.0.5")
}

func (failingLookup) FindBySlug(context.Context, string) (*models.Tenant, error) {
	return nil, errors.New("pq: connection refused on 10.0.0.5")
}

func TestStoreFaultDoesNotLeakDetail(t *testing.T) {
	resolver := New(failingLookup{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://acme.parking.io/api/admins", nil)

	resolver.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next must not be called")
	})).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
	assert.Contains(t, rr.Body.String(), "internal_error")
}

func TestIsPublic(t *testing.T) {
	r := New(failingLookup{}, slog.Default())
	assert.True(t, r.IsPublic("/favicon.ico"))
	assert.True(t, r.IsPublic("/swagger/index.html"))
	assert.True(t, r.IsPublic("/metrics"))
	assert.False(t, r.IsPublic("/api/admin/login"))

	custom := New(failingLookup{}, slog.Default(), WithPublicPrefixes("/status"))
	assert.True(t, custom.IsPublic("/status"))
	assert.False(t, custom.IsPublic("/health"))
}
