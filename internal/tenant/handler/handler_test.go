package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"smartparking/internal/tenant/handler/mocks"
	"smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	tenant  *models.Tenant
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterAdmin(s.router)
	h.RegisterPublic(s.router)

	var err error
	s.tenant, err = models.NewTenant(id.NewTenantID(), "acme", "Acme", "acme.parking.io",
		models.Settings{Branding: &models.Branding{PrimaryColor: "#003366"}}, time.Now())
	s.Require().NoError(err)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) decode(rr *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) TestCreate() {
	s.Run("created", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *models.CreateTenantRequest) (*models.Tenant, error) {
				s.Equal("acme", req.Slug)
				return s.tenant, nil
			})
		body := bytes.NewBufferString(`{"slug":"ACME","name":"Acme"}`)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/tenants", body))

		s.Equal(http.StatusCreated, rr.Code)
		data := s.decode(rr)["data"].(map[string]any)
		s.Equal("acme", data["slug"])
		s.Equal(true, data["is_active"])
	})

	s.Run("validation failure never reaches service", func() {
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/tenants", bytes.NewBufferString(`{"slug":"a","name":"x"}`)))
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("slug", s.decode(rr)["field"])
	})

	s.Run("conflict", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeConflict, "tenant slug must be unique"))
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/tenants", bytes.NewBufferString(`{"slug":"acme","name":"Acme"}`)))
		s.Equal(http.StatusConflict, rr.Code)
	})
}

func (s *HandlerSuite) TestGetBySlug() {
	s.service.EXPECT().GetByRef(gomock.Any(), "acme").Return(s.tenant, nil)
	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/tenants/acme", nil))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *HandlerSuite) TestList() {
	s.service.EXPECT().List(gomock.Any()).Return([]*models.Tenant{s.tenant}, nil)
	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/tenants", nil))
	s.Equal(http.StatusOK, rr.Code)
	s.Len(s.decode(rr)["data"], 1)
}

func (s *HandlerSuite) TestDeactivate() {
	s.Run("by uuid", func() {
		s.service.EXPECT().Deactivate(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/tenants/"+s.tenant.ID.String()+"/deactivate", nil))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("by slug resolves first", func() {
		s.service.EXPECT().GetByRef(gomock.Any(), "acme").Return(s.tenant, nil)
		s.service.EXPECT().Deactivate(gomock.Any(), s.tenant.ID).Return(nil, dErrors.New(dErrors.CodeConflict, "tenant is already inactive"))
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/tenants/acme/deactivate", nil))
		s.Equal(http.StatusConflict, rr.Code)
	})

	s.Run("unknown slug", func() {
		s.service.EXPECT().GetByRef(gomock.Any(), "ghost").Return(nil, dErrors.New(dErrors.CodeNotFound, "tenant not found"))
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/tenants/ghost/activate", nil))
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *HandlerSuite) TestUpdateSettings() {
	s.service.EXPECT().UpdateSettings(gomock.Any(), s.tenant.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.TenantID, settings models.Settings) (*models.Tenant, error) {
			s.Equal("BRL", settings.Currency)
			return s.tenant, nil
		})
	body := bytes.NewBufferString(`{"settings":{"currency":"brl","max_users":10}}`)
	rr := s.do(httptest.NewRequest(http.MethodPut, "/api/tenants/"+s.tenant.ID.String()+"/settings", body))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *HandlerSuite) TestCurrent() {
	s.Run("returns public view", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/tenant/current", nil)
		req = req.WithContext(tenantctx.With(req.Context(), tenantctx.New(s.tenant)))
		rr := s.do(req)

		s.Equal(http.StatusOK, rr.Code)
		data := s.decode(rr)["data"].(map[string]any)
		s.Equal("acme", data["slug"])
		s.NotContains(data, "settings")
		s.Equal("#003366", data["branding"].(map[string]any)["primary_color"])
	})

	s.Run("without tenant", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/api/tenant/current", nil))
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("TENANT_REQUIRED", s.decode(rr)["error"])
	})
}
