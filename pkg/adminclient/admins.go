package adminclient

import (
	"context"
	"net/http"
	"net/url"
)

// AdminsService manages the administrators of the client's tenant.
type AdminsService struct {
	http *httpClient
}

func (s *AdminsService) List(ctx context.Context) ([]Admin, error) {
	var res []Admin
	if err := s.http.call(ctx, http.MethodGet, "/api/admins", nil, &res, true); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AdminsService) Create(ctx context.Context, req CreateAdminRequest) (*Admin, error) {
	var res Admin
	if err := s.http.call(ctx, http.MethodPost, "/api/admins", req, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register signs up an administrator without logging in. The server allows
// it for a tenant's first administrator or when the tenant enables
// self-registration. It leaves the client's tokens untouched.
func (s *AdminsService) Register(ctx context.Context, req CreateAdminRequest) (*Admin, error) {
	var res Admin
	if err := s.http.call(ctx, http.MethodPost, "/api/admin", req, &res, false); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AdminsService) Get(ctx context.Context, adminID string) (*Admin, error) {
	var res Admin
	if err := s.http.call(ctx, http.MethodGet, "/api/admins/"+url.PathEscape(adminID), nil, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AdminsService) Update(ctx context.Context, adminID string, req UpdateAdminRequest) (*Admin, error) {
	var res Admin
	if err := s.http.call(ctx, http.MethodPut, "/api/admins/"+url.PathEscape(adminID), req, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AdminsService) Delete(ctx context.Context, adminID string) error {
	return s.http.call(ctx, http.MethodDelete, "/api/admins/"+url.PathEscape(adminID), nil, nil, true)
}

// ChangePassword changes the logged-in administrator's password.
func (s *AdminsService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return s.http.call(ctx, http.MethodPost, "/api/admins/me/password", req, nil, true)
}
