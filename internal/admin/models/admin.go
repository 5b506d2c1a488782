package models

import (
	"strings"
	"time"

	"smartparking/internal/auth/password"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/validation"
)

const maxNameLength = 128

// Admin is a tenant-scoped administrator account. TenantID never changes
// after creation and emails are unique per tenant, not globally.
type Admin struct {
	ID           id.AdminID
	TenantID     id.TenantID
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAdmin builds an active administrator. passwordHash must already be encoded.
func NewAdmin(adminID id.AdminID, tenantID id.TenantID, email, name, passwordHash string, now time.Time) (*Admin, error) {
	a := &Admin{
		ID:           adminID,
		TenantID:     tenantID,
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Admin) IsActive() bool {
	return a.Active
}

// Validate checks the record's own integrity. Stored records that fail it
// are treated as invalid accounts rather than logged into.
func (a *Admin) Validate() error {
	if a.ID.IsNil() {
		return dErrors.Validation("id", "is required")
	}
	if a.TenantID.IsNil() {
		return dErrors.Validation("tenant_id", "is required")
	}
	if !validation.Email(a.Email) {
		return dErrors.Validation("email", "must be a valid email")
	}
	if err := validateName(a.Name); err != nil {
		return err
	}
	if a.PasswordHash != "" && !password.WellFormed(a.PasswordHash) {
		return dErrors.Validation("password_hash", "is malformed")
	}
	return nil
}

// Rename changes the display name.
func (a *Admin) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	a.Name = name
	a.UpdatedAt = now
	return nil
}

// ChangeEmail replaces the login email. Uniqueness is enforced by the store.
func (a *Admin) ChangeEmail(email string, now time.Time) error {
	email = NormalizeEmail(email)
	if !validation.Email(email) {
		return dErrors.Validation("email", "must be a valid email")
	}
	a.Email = email
	a.UpdatedAt = now
	return nil
}

func (a *Admin) SetPasswordHash(hash string, now time.Time) {
	a.PasswordHash = hash
	a.UpdatedAt = now
}

func (a *Admin) RecordLogin(now time.Time) {
	at := now
	a.LastLoginAt = &at
}

// BelongsTo reports whether the admin is scoped to tenantID.
func (a *Admin) BelongsTo(tenantID id.TenantID) bool {
	return a.TenantID == tenantID
}

// WithoutHash returns a copy safe to hand to ordinary readers.
func (a *Admin) WithoutHash() *Admin {
	c := *a
	c.PasswordHash = ""
	if a.LastLoginAt != nil {
		at := *a.LastLoginAt
		c.LastLoginAt = &at
	}
	return &c
}

func validateName(name string) error {
	if name == "" {
		return dErrors.Validation("name", "is required")
	}
	if len([]rune(name)) > maxNameLength {
		return dErrors.Validation("name", "must be at most 128 characters")
	}
	return nil
}
