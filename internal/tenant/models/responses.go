package models

import "time"

// TenantResponse is the operator-facing view of a tenant.
type TenantResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	IsActive  bool      `json:"is_active"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicTenantResponse is what any caller of a tenant's subdomain may see.
type PublicTenantResponse struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Branding *Branding `json:"branding,omitempty"`
	TimeZone string    `json:"time_zone,omitempty"`
	Currency string    `json:"currency,omitempty"`
}

func ToTenantResponse(t *Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID.String(),
		Slug:      t.Slug,
		Name:      t.Name,
		Domain:    t.Domain,
		IsActive:  t.Active,
		Settings:  t.Settings,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func ToPublicTenantResponse(t *Tenant) PublicTenantResponse {
	return PublicTenantResponse{
		ID:       t.ID.String(),
		Slug:     t.Slug,
		Name:     t.Name,
		Branding: t.Settings.Branding,
		TimeZone: t.Settings.TimeZone,
		Currency: t.Settings.Currency,
	}
}
