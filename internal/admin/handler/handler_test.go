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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"smartparking/internal/admin/handler/mocks"
	"smartparking/internal/admin/models"
	tenantmodels "smartparking/internal/tenant/models"
	"smartparking/internal/tenant/tenantctx"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/requestcontext"
	"smartparking/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	tenant  *tenantmodels.Tenant
	admin   *models.Admin
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)

	s.tenant = testutil.NewTenantBuilder().WithID(testutil.TestIDs.TenantID1).Build()
	s.admin = testutil.NewAdminBuilder().WithID(testutil.TestIDs.AdminID1).Build()

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	// Stand-in for tenant resolution and the access-token middleware.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tenantctx.With(r.Context(), tenantctx.New(s.tenant))
			ctx = requestcontext.WithPrincipal(ctx, requestcontext.Principal{
				AdminID:  s.admin.ID,
				TenantID: s.tenant.ID,
				Email:    s.admin.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(s.router)
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
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest) (*models.Admin, error) {
				tenantID, err := tc.TenantID()
				s.Require().NoError(err)
				s.Equal(s.tenant.ID, tenantID)
				s.Equal("new@acme.test", req.Email)
				return s.admin, nil
			})
		body := bytes.NewBufferString(`{"email":"New@Acme.test","password":"Str0ng!Pass","name":"New"}`)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/admins", body))

		s.Equal(http.StatusCreated, rr.Code)
		resp := s.decode(rr)
		s.Equal("success", resp["status"])
		s.Equal("Administrator created successfully", resp["message"])
		data := resp["data"].(map[string]any)
		s.Equal(s.admin.ID.String(), data["id"])
		s.NotContains(data, "passwordHash")
	})

	s.Run("invalid email never reaches the service", func() {
		body := bytes.NewBufferString(`{"email":"nope","password":"Str0ng!Pass","name":"New"}`)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/admins", body))
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("email", s.decode(rr)["field"])
	})

	s.Run("conflict", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email is already registered in this tenant"))
		body := bytes.NewBufferString(`{"email":"ops@acme.test","password":"Str0ng!Pass","name":"Ops"}`)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/admins", body))
		s.Equal(http.StatusConflict, rr.Code)
	})
}

func (s *HandlerSuite) TestRegister() {
	// Only tenant resolution runs in front of self-registration.
	public := chi.NewRouter()
	public.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(tenantctx.With(r.Context(), tenantctx.New(s.tenant))))
		})
	})
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterPublic(public)
	post := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		public.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin", bytes.NewBufferString(body)))
		return rr
	}

	s.Run("created without a principal", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tc *tenantctx.Context, req *models.CreateAdminRequest) (*models.Admin, error) {
				_, ok := requestcontext.GetPrincipal(ctx)
				s.False(ok)
				tenantID, err := tc.TenantID()
				s.Require().NoError(err)
				s.Equal(s.tenant.ID, tenantID)
				return s.admin, nil
			})
		rr := post(`{"email":"first@acme.test","password":"Str0ng!Pass","name":"First"}`)

		s.Equal(http.StatusCreated, rr.Code)
		resp := s.decode(rr)
		s.Equal("Administrator created successfully", resp["message"])
		s.Equal(s.admin.ID.String(), resp["data"].(map[string]any)["id"])
	})

	s.Run("closed registration is forbidden", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "self-registration is closed for this tenant"))
		rr := post(`{"email":"late@acme.test","password":"Str0ng!Pass","name":"Late"}`)
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("short name never reaches the service", func() {
		rr := post(`{"email":"first@acme.test","password":"Str0ng!Pass","name":""}`)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestList() {
	for _, path := range []string{"/api/admins", "/api/admin"} {
		s.Run(path, func() {
			s.service.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*models.Admin{s.admin}, nil)
			rr := s.do(httptest.NewRequest(http.MethodGet, path, nil))

			s.Equal(http.StatusOK, rr.Code)
			resp := s.decode(rr)
			s.Equal("Administrators retrieved successfully", resp["message"])
			s.Len(resp["data"], 1)
		})
	}
}

func (s *HandlerSuite) TestGet() {
	s.Run("found", func() {
		s.service.EXPECT().Get(gomock.Any(), gomock.Any(), s.admin.ID).Return(s.admin, nil)
		rr := s.do(httptest.NewRequest(http.MethodGet, "/api/admins/"+s.admin.ID.String(), nil))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("malformed id", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/api/admins/not-a-uuid", nil))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("not found", func() {
		other := id.NewAdminID()
		s.service.EXPECT().Get(gomock.Any(), gomock.Any(), other).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "administrator not found"))
		rr := s.do(httptest.NewRequest(http.MethodGet, "/api/admins/"+other.String(), nil))
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *HandlerSuite) TestMe() {
	s.service.EXPECT().Get(gomock.Any(), gomock.Any(), s.admin.ID).Return(s.admin, nil)
	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))

	s.Equal(http.StatusOK, rr.Code)
	data := s.decode(rr)["data"].(map[string]any)
	s.Equal("ops@acme.test", data["email"])
}

func (s *HandlerSuite) TestUpdate() {
	s.service.EXPECT().Update(gomock.Any(), gomock.Any(), s.admin.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *tenantctx.Context, _ id.AdminID, req *models.UpdateAdminRequest) (*models.Admin, error) {
			s.Require().NotNil(req.Name)
			s.Equal("Night", *req.Name)
			s.Nil(req.Email)
			return s.admin, nil
		})
	body := bytes.NewBufferString(`{"name":" Night "}`)
	rr := s.do(httptest.NewRequest(http.MethodPut, "/api/admins/"+s.admin.ID.String(), body))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *HandlerSuite) TestChangePassword() {
	s.Run("changes the caller's password", func() {
		s.service.EXPECT().ChangePassword(gomock.Any(), gomock.Any(), s.admin.ID, gomock.Any()).Return(nil)
		body := bytes.NewBufferString(`{"current_password":"Str0ng!Pass","new_password":"N3w!Password"}`)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/admins/me/password", body))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("wrong current password", func() {
		s.service.EXPECT().ChangePassword(gomock.Any(), gomock.Any(), s.admin.ID, gomock.Any()).
			Return(dErrors.New(dErrors.CodeInvalidCredentials, "current password is incorrect"))
		body := bytes.NewBufferString(`{"current_password":"wrong","new_password":"N3w!Password"}`)
		rr := s.do(httptest.NewRequest(http.MethodPost, "/api/admins/me/password", body))
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}

func (s *HandlerSuite) TestDelete() {
	other := id.NewAdminID()
	s.service.EXPECT().Delete(gomock.Any(), gomock.Any(), s.admin.ID, other).Return(nil)
	rr := s.do(httptest.NewRequest(http.MethodDelete, "/api/admins/"+other.String(), nil))
	s.Equal(http.StatusNoContent, rr.Code)
}
