package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
)

var (
	now       = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	validHash = strings.Repeat("ab", 32) + ":" + strings.Repeat("cd", 64)
)

func TestNewAdmin(t *testing.T) {
	t.Run("normalizes email and name", func(t *testing.T) {
		a, err := NewAdmin(id.NewAdminID(), id.NewTenantID(), "  Boss@Acme.COM ", "  Jane Doe ", validHash, now)
		require.NoError(t, err)
		assert.Equal(t, "boss@acme.com", a.Email)
		assert.Equal(t, "Jane Doe", a.Name)
		assert.True(t, a.IsActive())
		assert.Equal(t, now, a.CreatedAt)
	})

	tests := []struct {
		name  string
		admin func() (*Admin, error)
		field string
	}{
		{"invalid email", func() (*Admin, error) {
			return NewAdmin(id.NewAdminID(), id.NewTenantID(), "not-an-email", "Jane", validHash, now)
		}, "email"},
		{"missing tenant", func() (*Admin, error) {
			return NewAdmin(id.NewAdminID(), id.TenantID{}, "jane@acme.com", "Jane", validHash, now)
		}, "tenant_id"},
		{"blank name", func() (*Admin, error) {
			return NewAdmin(id.NewAdminID(), id.NewTenantID(), "jane@acme.com", "   ", validHash, now)
		}, "name"},
		{"malformed hash", func() (*Admin, error) {
			return NewAdmin(id.NewAdminID(), id.NewTenantID(), "jane@acme.com", "Jane", "plaintext", now)
		}, "password_hash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.admin()
			require.Error(t, err)
			var de *dErrors.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, dErrors.CodeValidation, de.Code)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestAdminMutations(t *testing.T) {
	a, err := NewAdmin(id.NewAdminID(), id.NewTenantID(), "jane@acme.com", "Jane", validHash, now)
	require.NoError(t, err)
	later := now.Add(time.Hour)

	require.NoError(t, a.Rename("Jane Q. Doe", later))
	assert.Equal(t, "Jane Q. Doe", a.Name)
	assert.Equal(t, later, a.UpdatedAt)

	require.Error(t, a.ChangeEmail("broken", later))
	require.NoError(t, a.ChangeEmail("JQD@acme.com", later))
	assert.Equal(t, "jqd@acme.com", a.Email)

	a.RecordLogin(later)
	require.NotNil(t, a.LastLoginAt)
	assert.Equal(t, later, *a.LastLoginAt)
}

func TestWithoutHash(t *testing.T) {
	a, err := NewAdmin(id.NewAdminID(), id.NewTenantID(), "jane@acme.com", "Jane", validHash, now)
	require.NoError(t, err)
	a.RecordLogin(now)

	c := a.WithoutHash()
	assert.Empty(t, c.PasswordHash)
	assert.Equal(t, validHash, a.PasswordHash)
	assert.NotSame(t, a.LastLoginAt, c.LastLoginAt)
}

func TestAdminResponseNeverCarriesHash(t *testing.T) {
	a, err := NewAdmin(id.NewAdminID(), id.NewTenantID(), "jane@acme.com", "Jane", validHash, now)
	require.NoError(t, err)

	raw, err := json.Marshal(ToAdminResponse(a))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), validHash)
	assert.Contains(t, string(raw), `"tenantUuid":"`+a.TenantID.String()+`"`)
	assert.Contains(t, string(raw), `"createdAt"`)
}

func TestCreateAdminRequestValidate(t *testing.T) {
	req := &CreateAdminRequest{Email: " New@Acme.com ", Password: "Str0ng!pass", Name: " New "}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "new@acme.com", req.Email)

	bad := &CreateAdminRequest{Email: "nope", Password: "Str0ng!pass", Name: "New"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email", err.Error())
}
