package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	id "smartparking/pkg/domain"
	"smartparking/pkg/requestcontext"
)

type MockAccessTokenValidator struct {
	mock.Mock
}

func (m *MockAccessTokenValidator) ValidateAccess(token string) (*requestcontext.Principal, error) {
	args := m.Called(token)
	if p := args.Get(0); p != nil {
		return p.(*requestcontext.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

type captureHandler struct {
	called    bool
	principal requestcontext.Principal
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.principal, _ = requestcontext.GetPrincipal(r.Context())
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockAccessTokenValidator
	logger    *slog.Logger
	next      *captureHandler
	principal *requestcontext.Principal
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockAccessTokenValidator)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.next = &captureHandler{}
	s.principal = &requestcontext.Principal{
		AdminID:  id.NewAdminID(),
		TenantID: id.NewTenantID(),
		Email:    "admin@acme.com",
		Role:     "admin",
	}
}

func (s *AuthMiddlewareSuite) serve(mw func(http.Handler) http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/admins", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	mw(s.next).ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestMissingHeader() {
	w := s.serve(RequireAuth(s.validator, s.logger), "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(w.Header().Get("WWW-Authenticate"))
	s.False(s.next.called)
}

func (s *AuthMiddlewareSuite) TestWrongScheme() {
	w := s.serve(RequireAuth(s.validator, s.logger), "Basic abc")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.validator.AssertNotCalled(s.T(), "ValidateAccess", mock.Anything)
}

func (s *AuthMiddlewareSuite) TestInvalidToken() {
	s.validator.On("ValidateAccess", "bad").Return(nil, errors.New("invalid token"))
	w := s.serve(RequireAuth(s.validator, s.logger), "Bearer bad")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":"unauthorized","code":"unauthorized","error_description":"Invalid or expired token"}`, w.Body.String())
}

func (s *AuthMiddlewareSuite) TestValidTokenPopulatesPrincipal() {
	s.validator.On("ValidateAccess", "good").Return(s.principal, nil)
	w := s.serve(RequireAuth(s.validator, s.logger), "Bearer good")
	s.Equal(http.StatusOK, w.Code)
	s.True(s.next.called)
	s.Equal(*s.principal, s.next.principal)
}

func (s *AuthMiddlewareSuite) TestTenantBinding() {
	s.validator.On("ValidateAccess", "good").Return(s.principal, nil)

	s.Run("matching tenant passes", func() {
		s.next.called = false
		resolver := func(context.Context) (id.TenantID, bool) { return s.principal.TenantID, true }
		w := s.serve(RequireAuth(s.validator, s.logger, WithTenantBinding(resolver)), "Bearer good")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("other tenant is forbidden", func() {
		s.next.called = false
		resolver := func(context.Context) (id.TenantID, bool) { return id.NewTenantID(), true }
		w := s.serve(RequireAuth(s.validator, s.logger, WithTenantBinding(resolver)), "Bearer good")
		s.Equal(http.StatusForbidden, w.Code)
		s.False(s.next.called)
	})

	s.Run("unresolved tenant is forbidden", func() {
		s.next.called = false
		resolver := func(context.Context) (id.TenantID, bool) { return id.TenantID{}, false }
		w := s.serve(RequireAuth(s.validator, s.logger, WithTenantBinding(resolver)), "Bearer good")
		s.Equal(http.StatusForbidden, w.Code)
	})
}
