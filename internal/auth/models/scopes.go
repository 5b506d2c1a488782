package models

import "strings"

// Scope is one permission granted to an administrator session.
type Scope string

const (
	ScopeAdminFull Scope = "admin:full"
	ScopeReadAll   Scope = "read:all"
	ScopeWriteAll  Scope = "write:all"
)

func (s Scope) String() string {
	return string(s)
}

// TenantScope binds a session to one tenant.
func TenantScope(tenantID string) Scope {
	return Scope("tenant:" + tenantID)
}

// AdminScopes is the space-delimited scope string issued with every login.
func AdminScopes(tenantID string) string {
	scopes := []Scope{ScopeAdminFull, ScopeReadAll, ScopeWriteAll, TenantScope(tenantID)}
	parts := make([]string, len(scopes))
	for i, sc := range scopes {
		parts[i] = sc.String()
	}
	return strings.Join(parts, " ")
}
