package models

import (
	"strings"

	"smartparking/pkg/validation"
)

type CreateTenantRequest struct {
	Slug     string   `json:"slug" validate:"required,slug"`
	Name     string   `json:"name" validate:"required,notblank,max=128"`
	Domain   string   `json:"domain" validate:"omitempty,fqdn"`
	Settings Settings `json:"settings"`
}

func (r *CreateTenantRequest) Normalize() {
	r.Slug = NormalizeSlug(r.Slug)
	r.Name = strings.TrimSpace(r.Name)
	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	r.Settings.Currency = strings.ToUpper(strings.TrimSpace(r.Settings.Currency))
}

func (r *CreateTenantRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return r.Settings.Validate()
}

type UpdateSettingsRequest struct {
	Settings Settings `json:"settings"`
}

func (r *UpdateSettingsRequest) Normalize() {
	r.Settings.Currency = strings.ToUpper(strings.TrimSpace(r.Settings.Currency))
	r.Settings.TimeZone = strings.TrimSpace(r.Settings.TimeZone)
}

func (r *UpdateSettingsRequest) Validate() error {
	return r.Settings.Validate()
}
