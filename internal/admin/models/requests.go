package models

import (
	"strings"

	"smartparking/pkg/validation"
)

// CreateAdminRequest registers an administrator in the resolved tenant.
type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,notblank,max=128"`
}

func (r *CreateAdminRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateAdminRequest) Validate() error {
	return validation.Validate(r)
}

// UpdateAdminRequest changes profile fields. Nil fields are left unchanged.
type UpdateAdminRequest struct {
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,max=128"`
}

func (r *UpdateAdminRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Email != nil {
		e := NormalizeEmail(*r.Email)
		r.Email = &e
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
}

func (r *UpdateAdminRequest) Validate() error {
	return validation.Validate(r)
}

// ChangePasswordRequest rotates the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

func (r *ChangePasswordRequest) Validate() error {
	return validation.Validate(r)
}
