package testutil

import (
	"time"

	"github.com/google/uuid"

	adminmodels "smartparking/internal/admin/models"
	tenantmodels "smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
)

// TestIDs provides fixed IDs for deterministic test data.
var TestIDs = struct {
	TenantID1 id.TenantID
	TenantID2 id.TenantID
	AdminID1  id.AdminID
	AdminID2  id.AdminID
}{
	TenantID1: id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	TenantID2: id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
	AdminID1:  id.AdminID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	AdminID2:  id.AdminID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
}

// TenantBuilder provides a fluent interface for building test tenants.
// Build skips validation so tests can construct states the constructor
// refuses.
type TenantBuilder struct {
	tenant *tenantmodels.Tenant
}

// NewTenantBuilder creates an active "acme" tenant.
func NewTenantBuilder() *TenantBuilder {
	now := time.Now()
	return &TenantBuilder{
		tenant: &tenantmodels.Tenant{
			ID:        id.NewTenantID(),
			Slug:      "acme",
			Name:      "Acme",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *TenantBuilder) WithID(tenantID id.TenantID) *TenantBuilder {
	b.tenant.ID = tenantID
	return b
}

func (b *TenantBuilder) WithSlug(slug string) *TenantBuilder {
	b.tenant.Slug = slug
	return b
}

func (b *TenantBuilder) WithName(name string) *TenantBuilder {
	b.tenant.Name = name
	return b
}

func (b *TenantBuilder) WithDomain(domain string) *TenantBuilder {
	b.tenant.Domain = domain
	return b
}

func (b *TenantBuilder) WithSettings(settings tenantmodels.Settings) *TenantBuilder {
	b.tenant.Settings = settings
	return b
}

func (b *TenantBuilder) Inactive() *TenantBuilder {
	b.tenant.Active = false
	return b
}

func (b *TenantBuilder) Build() *tenantmodels.Tenant {
	return b.tenant
}

// AdminBuilder provides a fluent interface for building test administrators.
type AdminBuilder struct {
	admin *adminmodels.Admin
}

// NewAdminBuilder creates an active administrator of TestIDs.TenantID1
// without a password hash.
func NewAdminBuilder() *AdminBuilder {
	now := time.Now()
	return &AdminBuilder{
		admin: &adminmodels.Admin{
			ID:        id.NewAdminID(),
			TenantID:  TestIDs.TenantID1,
			Email:     "ops@acme.test",
			Name:      "Ops",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *AdminBuilder) WithID(adminID id.AdminID) *AdminBuilder {
	b.admin.ID = adminID
	return b
}

func (b *AdminBuilder) WithTenantID(tenantID id.TenantID) *AdminBuilder {
	b.admin.TenantID = tenantID
	return b
}

func (b *AdminBuilder) WithEmail(email string) *AdminBuilder {
	b.admin.Email = email
	return b
}

func (b *AdminBuilder) WithName(name string) *AdminBuilder {
	b.admin.Name = name
	return b
}

func (b *AdminBuilder) WithPasswordHash(hash string) *AdminBuilder {
	b.admin.PasswordHash = hash
	return b
}

func (b *AdminBuilder) Inactive() *AdminBuilder {
	b.admin.Active = false
	return b
}

func (b *AdminBuilder) Build() *adminmodels.Admin {
	return b.admin
}
