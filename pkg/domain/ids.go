// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "smartparking/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing AdminID where TenantID is expected.
type (
	TenantID  uuid.UUID
	AdminID   uuid.UUID
	SessionID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, token claims, API inputs).

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParseAdminID(s string) (AdminID, error) {
	id, err := parseUUID(s, "admin ID")
	return AdminID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

// Constructors for freshly minted identifiers.

func NewTenantID() TenantID   { return TenantID(uuid.New()) }
func NewAdminID() AdminID     { return AdminID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// String methods - for logging and serialization.

func (id TenantID) String() string  { return uuid.UUID(id).String() }
func (id AdminID) String() string   { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id TenantID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.

func (id TenantID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id AdminID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// IsUUID reports whether s parses as a non-nil UUID.
func IsUUID(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u != uuid.Nil
}

// parseUUID is the shared validation logic. Nil UUIDs are rejected so that a
// zero value never reaches a store lookup.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
