package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"smartparking/internal/sentinel"
	"smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
)

// ErrNotFound is returned when a tenant is not found.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores tenants in memory for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	slugIdx map[string]id.TenantID
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[id.TenantID]*models.Tenant),
		slugIdx: make(map[string]id.TenantID),
	}
}

// Create inserts the tenant if its slug is not already taken.
func (s *InMemory) Create(_ context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := models.NormalizeSlug(t.Slug)
	if _, exists := s.slugIdx[slug]; exists {
		return fmt.Errorf("tenant slug must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.tenants[t.ID]; exists {
		return fmt.Errorf("tenant id must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	stored := clone(t)
	stored.Slug = slug
	s.tenants[t.ID] = stored
	s.slugIdx[slug] = t.ID
	return nil
}

// FindByID retrieves a tenant by its UUID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[tenantID]; ok {
		return clone(t), nil
	}
	return nil, ErrNotFound
}

// FindBySlug retrieves a tenant by slug (case-insensitive).
func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tenantID, ok := s.slugIdx[models.NormalizeSlug(slug)]; ok {
		return clone(s.tenants[tenantID]), nil
	}
	return nil, ErrNotFound
}

// List returns all tenants ordered by slug.
func (s *InMemory) List(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Update replaces the mutable fields of an existing tenant. The slug is immutable.
func (s *InMemory) Update(_ context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tenants[t.ID]
	if !ok {
		return ErrNotFound
	}
	updated := clone(t)
	updated.Slug = existing.Slug
	updated.CreatedAt = existing.CreatedAt
	s.tenants[t.ID] = updated
	return nil
}

// Count returns the total number of tenants.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants), nil
}

// clone copies a tenant so callers never share the stored pointer.
func clone(t *models.Tenant) *models.Tenant {
	c := *t
	if t.Settings.Features != nil {
		c.Settings.Features = make(map[string]bool, len(t.Settings.Features))
		for k, v := range t.Settings.Features {
			c.Settings.Features[k] = v
		}
	}
	if t.Settings.Branding != nil {
		b := *t.Settings.Branding
		c.Settings.Branding = &b
	}
	return &c
}
