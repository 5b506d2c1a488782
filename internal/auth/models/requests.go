package models

import (
	"strings"

	"smartparking/pkg/validation"
)

// LoginRequest authenticates an administrator. TenantUUID is optional and
// only honoured when it agrees with the resolved tenant.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required,max=128"`
	TenantUUID string `json:"tenantUuid,omitempty" validate:"omitempty,uuid"`
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.TenantUUID = strings.TrimSpace(r.TenantUUID)
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (r *RefreshRequest) Normalize() {
	if r != nil {
		r.RefreshToken = strings.TrimSpace(r.RefreshToken)
	}
}

func (r *RefreshRequest) Validate() error {
	return validation.Validate(r)
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// LogoutRequest may carry the refresh token to revoke. It is optional.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}
