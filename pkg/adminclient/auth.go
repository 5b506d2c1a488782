package adminclient

import (
	"context"
	"net/http"
)

// AuthService covers login, token validation and logout.
type AuthService struct {
	http   *httpClient
	tokens *TokenManager
}

// Login authenticates and stores the returned tokens.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var res LoginResult
	if err := s.http.call(ctx, http.MethodPost, "/api/admin/login", req, &res, false); err != nil {
		return nil, err
	}
	s.tokens.Set(Tokens{
		AccessToken:  res.Authentication.AccessToken,
		RefreshToken: res.Authentication.RefreshToken,
		ExpiresAt:    res.Authentication.ExpiresAt,
	})
	return &res, nil
}

// ValidateToken asks the server whether token is a valid access token.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*TokenValidation, error) {
	var res TokenValidation
	err := s.http.call(ctx, http.MethodPost, "/api/admin/validate-token", map[string]string{"token": token}, &res, false)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Me returns the logged-in administrator.
func (s *AuthService) Me(ctx context.Context) (*Admin, error) {
	var res Admin
	if err := s.http.call(ctx, http.MethodGet, "/api/admin/me", nil, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout revokes the refresh token on the server. Local tokens are cleared
// whatever the server answers; the returned error is informational.
func (s *AuthService) Logout(ctx context.Context) error {
	defer s.tokens.Clear()
	t, ok := s.tokens.Tokens()
	if !ok {
		return nil
	}
	return s.http.call(ctx, http.MethodPost, "/api/admin/logout", map[string]string{"refresh_token": t.RefreshToken}, nil, false)
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var res refreshResult
	err := s.http.call(ctx, http.MethodPost, "/api/admin/refresh-token", map[string]string{"refresh_token": refreshToken}, &res, false)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
	}, nil
}
