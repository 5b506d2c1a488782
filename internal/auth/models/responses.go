package models

import (
	"time"

	adminmodels "smartparking/internal/admin/models"
)

const TokenTypeBearer = "Bearer"

// Authentication is the token block of a login response.
type Authentication struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	RefreshToken string    `json:"refresh_token"`
}

// Session describes the login that produced a token pair.
type Session struct {
	SessionID string `json:"session_id"`
	LoginTime string `json:"login_time"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Admin          adminmodels.AdminResponse `json:"admin"`
	Authentication Authentication            `json:"authentication"`
	Session        *Session                  `json:"session,omitempty"`
}

// RefreshResult carries a new access token. RefreshToken is set only when
// the presented refresh token was rotated.
type RefreshResult struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// TokenAdmin identifies the holder of a valid access token.
type TokenAdmin struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
}

// TokenValidation is the answer to a validate-token call.
type TokenValidation struct {
	Valid     bool        `json:"valid"`
	Admin     *TokenAdmin `json:"admin,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}
