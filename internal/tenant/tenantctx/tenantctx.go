// Package tenantctx carries the tenant resolved for one request.
//
// A Context is built by the resolution middleware and never mutated after.
// Use-cases receive it as an explicit argument; context.Context is only the
// transport between the middleware and the HTTP handler.
package tenantctx

import (
	"context"

	"smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
	dErrors "smartparking/pkg/domain-errors"
)

// Context holds at most one resolved tenant. The zero value and nil are both empty.
type Context struct {
	tenant *models.Tenant
}

// Empty returns a context with no tenant.
func Empty() *Context {
	return &Context{}
}

// New returns a context populated with t. The tenant is deep-copied so later
// changes to the caller's value are not observed.
func New(t *models.Tenant) *Context {
	if t == nil {
		return Empty()
	}
	return &Context{tenant: t.Clone()}
}

// Tenant returns a copy of the resolved tenant, if any. Writes to the copy
// do not reach the context.
func (c *Context) Tenant() (*models.Tenant, bool) {
	if c == nil || c.tenant == nil {
		return nil, false
	}
	return c.tenant.Clone(), true
}

// HasTenant reports whether a tenant was resolved.
func (c *Context) HasTenant() bool {
	return c != nil && c.tenant != nil
}

// Require returns the tenant or a TENANT_REQUIRED domain error.
func (c *Context) Require() (*models.Tenant, error) {
	t, ok := c.Tenant()
	if !ok {
		return nil, dErrors.New(dErrors.CodeTenantRequired, "Tenant information is required")
	}
	return t, nil
}

// TenantID returns the resolved tenant id or a TENANT_REQUIRED domain error.
func (c *Context) TenantID() (id.TenantID, error) {
	t, err := c.Require()
	if err != nil {
		return id.TenantID{}, err
	}
	return t.ID, nil
}

type ctxKey struct{}

// With stores tc in ctx.
func With(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// From returns the request's tenant context. It never returns nil.
func From(ctx context.Context) *Context {
	if tc, ok := ctx.Value(ctxKey{}).(*Context); ok && tc != nil {
		return tc
	}
	return Empty()
}

// ResolvedTenantID adapts From for the auth middleware's tenant binding.
func ResolvedTenantID(ctx context.Context) (id.TenantID, bool) {
	t, ok := From(ctx).Tenant()
	if !ok {
		return id.TenantID{}, false
	}
	return t.ID, true
}
