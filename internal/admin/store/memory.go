package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smartparking/internal/admin/models"
	"smartparking/internal/sentinel"
	id "smartparking/pkg/domain"
)

// ErrNotFound is returned when an administrator is not found.
var ErrNotFound = sentinel.ErrNotFound

type emailKey struct {
	tenant id.TenantID
	email  string
}

// InMemory stores administrators in memory for development and tests.
// Reads return copies without the password hash unless asked for it.
type InMemory struct {
	mu       sync.RWMutex
	admins   map[id.AdminID]*models.Admin
	emailIdx map[emailKey]id.AdminID
}

func NewInMemory() *InMemory {
	return &InMemory{
		admins:   make(map[id.AdminID]*models.Admin),
		emailIdx: make(map[emailKey]id.AdminID),
	}
}

// Create inserts the admin. A taken (tenant, email) pair is sentinel.ErrAlreadyUsed.
func (s *InMemory) Create(_ context.Context, a *models.Admin) error {
	if a == nil {
		return fmt.Errorf("admin is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey{a.TenantID, models.NormalizeEmail(a.Email)}
	if _, exists := s.emailIdx[key]; exists {
		return fmt.Errorf("admin email must be unique per tenant: %w", sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.admins[a.ID]; exists {
		return fmt.Errorf("admin id must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	stored := clone(a)
	stored.Email = key.email
	s.admins[a.ID] = stored
	s.emailIdx[key] = a.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, adminID id.AdminID) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.admins[adminID]; ok {
		return a.WithoutHash(), nil
	}
	return nil, ErrNotFound
}

// FindByEmailAndTenant looks an admin up within one tenant. The password
// hash is only populated when includeHash is set.
func (s *InMemory) FindByEmailAndTenant(_ context.Context, email string, tenantID id.TenantID, includeHash bool) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adminID, ok := s.emailIdx[emailKey{tenantID, models.NormalizeEmail(email)}]
	if !ok {
		return nil, ErrNotFound
	}
	a := s.admins[adminID]
	if includeHash {
		return clone(a), nil
	}
	return a.WithoutHash(), nil
}

// ListByTenant returns the tenant's admins ordered by email.
func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Admin, 0)
	for _, a := range s.admins {
		if a.TenantID == tenantID {
			out = append(out, a.WithoutHash())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.admins {
		if a.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// Update replaces the mutable fields. TenantID and CreatedAt are immutable;
// an empty PasswordHash keeps the stored one.
func (s *InMemory) Update(_ context.Context, a *models.Admin) error {
	if a == nil {
		return fmt.Errorf("admin is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.admins[a.ID]
	if !ok {
		return ErrNotFound
	}
	oldKey := emailKey{existing.TenantID, existing.Email}
	newKey := emailKey{existing.TenantID, models.NormalizeEmail(a.Email)}
	if newKey != oldKey {
		if _, taken := s.emailIdx[newKey]; taken {
			return fmt.Errorf("admin email must be unique per tenant: %w", sentinel.ErrAlreadyUsed)
		}
	}

	updated := clone(a)
	updated.TenantID = existing.TenantID
	updated.CreatedAt = existing.CreatedAt
	updated.Email = newKey.email
	if updated.PasswordHash == "" {
		updated.PasswordHash = existing.PasswordHash
	}
	delete(s.emailIdx, oldKey)
	s.emailIdx[newKey] = a.ID
	s.admins[a.ID] = updated
	return nil
}

// RecordLogin stamps the last successful login time.
func (s *InMemory) RecordLogin(_ context.Context, adminID id.AdminID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[adminID]
	if !ok {
		return ErrNotFound
	}
	a.RecordLogin(at)
	return nil
}

func (s *InMemory) Delete(_ context.Context, adminID id.AdminID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[adminID]
	if !ok {
		return ErrNotFound
	}
	delete(s.emailIdx, emailKey{a.TenantID, a.Email})
	delete(s.admins, adminID)
	return nil
}

func clone(a *models.Admin) *models.Admin {
	c := *a
	if a.LastLoginAt != nil {
		at := *a.LastLoginAt
		c.LastLoginAt = &at
	}
	return &c
}
