package models

import (
	"maps"
	"strings"
	"time"

	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/validation"
)

// Branding customizes the admin UI per tenant.
type Branding struct {
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

// Settings are optional per-tenant knobs. A zero MaxUsers means unlimited.
type Settings struct {
	MaxUsers int             `json:"max_users,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
	Branding *Branding       `json:"branding,omitempty"`
	TimeZone string          `json:"time_zone,omitempty"`
	Currency string          `json:"currency,omitempty"`
}

// FeatureEnabled reports whether a named feature flag is on.
func (s Settings) FeatureEnabled(name string) bool {
	return s.Features[name]
}

// Clone returns a copy that shares no map or pointer with s.
func (s Settings) Clone() Settings {
	s.Features = maps.Clone(s.Features)
	if s.Branding != nil {
		b := *s.Branding
		s.Branding = &b
	}
	return s
}

func (s Settings) Validate() error {
	if s.MaxUsers < 0 {
		return dErrors.Validation("max_users", "must not be negative")
	}
	if s.TimeZone != "" {
		if _, err := time.LoadLocation(s.TimeZone); err != nil {
			return dErrors.Validation("time_zone", "must be an IANA time zone")
		}
	}
	if s.Currency != "" && len(s.Currency) != 3 {
		return dErrors.Validation("currency", "must be a 3-letter ISO 4217 code")
	}
	return nil
}

// Tenant is an isolated customer organization. Tenants are never deleted;
// deactivation is the deletion mechanism.
type Tenant struct {
	ID        id.TenantID `json:"id"`
	Slug      string      `json:"slug"`
	Name      string      `json:"name"`
	Domain    string      `json:"domain"`
	Active    bool        `json:"is_active"`
	Settings  Settings    `json:"settings"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of t.
func (t *Tenant) Clone() *Tenant {
	c := *t
	c.Settings = t.Settings.Clone()
	return &c
}

func (t *Tenant) IsActive() bool {
	return t.Active
}

// Deactivate makes the tenant unservable. Fails if already inactive.
func (t *Tenant) Deactivate(now time.Time) error {
	if !t.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	t.Active = false
	t.UpdatedAt = now
	return nil
}

// Activate makes the tenant servable again. Fails if already active.
func (t *Tenant) Activate(now time.Time) error {
	if t.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	t.Active = true
	t.UpdatedAt = now
	return nil
}

// UpdateSettings replaces the settings block after validating it.
func (t *Tenant) UpdateSettings(settings Settings, now time.Time) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	t.Settings = settings
	t.UpdatedAt = now
	return nil
}

// NormalizeSlug lowercases and trims a slug candidate.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// NewTenant builds an active tenant with a validated, lowercased slug.
func NewTenant(tenantID id.TenantID, slug, name, domain string, settings Settings, now time.Time) (*Tenant, error) {
	slug = NormalizeSlug(slug)
	if !validation.Slug(slug) {
		return nil, dErrors.Validation("slug", "must be 2-50 letters, digits or hyphens")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.Validation("name", "is required")
	}
	if len(name) > 128 {
		return nil, dErrors.Validation("name", "must be at most 128 characters")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Tenant{
		ID:        tenantID,
		Slug:      slug,
		Name:      name,
		Domain:    strings.ToLower(strings.TrimSpace(domain)),
		Active:    true,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
