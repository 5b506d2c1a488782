package tenantctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
)

func TestRequire(t *testing.T) {
	t.Run("empty context fails with tenant required", func(t *testing.T) {
		for _, tc := range []*Context{nil, Empty(), New(nil)} {
			_, err := tc.Require()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantRequired))
			assert.False(t, tc.HasTenant())
		}
	})

	t.Run("populated context returns the tenant", func(t *testing.T) {
		tenant, err := models.NewTenant(id.NewTenantID(), "acme", "Acme", "", models.Settings{}, time.Now())
		require.NoError(t, err)

		tc := New(tenant)
		got, err := tc.Require()
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)

		tenantID, err := tc.TenantID()
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, tenantID)
	})
}

func TestImmutable(t *testing.T) {
	tenant, err := models.NewTenant(id.NewTenantID(), "acme", "Acme", "", models.Settings{}, time.Now())
	require.NoError(t, err)

	tc := New(tenant)
	tenant.Name = "Changed"

	got, ok := tc.Tenant()
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Name)

	got.Name = "Changed again"
	again, _ := tc.Tenant()
	assert.Equal(t, "Acme", again.Name)
}

func TestContextTransport(t *testing.T) {
	assert.False(t, From(context.Background()).HasTenant())

	tenant, err := models.NewTenant(id.NewTenantID(), "acme", "Acme", "", models.Settings{}, time.Now())
	require.NoError(t, err)
	ctx := With(context.Background(), New(tenant))

	assert.True(t, From(ctx).HasTenant())
	resolved, ok := ResolvedTenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, tenant.ID, resolved)
}

func TestContextIsolatesSettings(t *testing.T) {
	tenant, err := models.NewTenant(id.NewTenantID(), "acme", "Acme", "", models.Settings{
		Features: map[string]bool{"reservations": false},
		Branding: &models.Branding{PrimaryColor: "#000000"},
	}, time.Now())
	require.NoError(t, err)

	tc := New(tenant)
	tenant.Settings.Features["reservations"] = true
	tenant.Settings.Branding.PrimaryColor = "#ffffff"

	got, ok := tc.Tenant()
	require.True(t, ok)
	assert.False(t, got.Settings.Features["reservations"])
	assert.Equal(t, "#000000", got.Settings.Branding.PrimaryColor)

	got.Settings.Features["analytics"] = true
	got.Settings.Branding.LogoURL = "https://evil.test/logo.png"

	again, _ := tc.Tenant()
	assert.NotContains(t, again.Settings.Features, "analytics")
	assert.Empty(t, again.Settings.Branding.LogoURL)
}
