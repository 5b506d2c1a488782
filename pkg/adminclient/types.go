package adminclient

import "time"

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantUUID string `json:"tenantUuid,omitempty"`
}

type Admin struct {
	ID          string     `json:"id"`
	TenantUUID  string     `json:"tenantUuid"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Authentication struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	RefreshToken string    `json:"refresh_token"`
}

type Session struct {
	SessionID string `json:"session_id"`
	LoginTime string `json:"login_time"`
}

type LoginResult struct {
	Admin          Admin          `json:"admin"`
	Authentication Authentication `json:"authentication"`
	Session        *Session       `json:"session,omitempty"`
}

type refreshResult struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

type TokenAdmin struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
}

type TokenValidation struct {
	Valid     bool        `json:"valid"`
	Admin     *TokenAdmin `json:"admin,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

type CreateAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// UpdateAdminRequest changes only the non-nil fields.
type UpdateAdminRequest struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
