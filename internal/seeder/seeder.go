// Package seeder loads tenants and administrators from a YAML file. Seeding
// is idempotent: existing tenants (by slug) and administrators (by email
// within the tenant) are left untouched.
package seeder

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	adminmodels "smartparking/internal/admin/models"
	"smartparking/internal/sentinel"
	tenantmodels "smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
)

//go:embed demo.yaml
var demoSeed []byte

type TenantStore interface {
	Create(ctx context.Context, tenant *tenantmodels.Tenant) error
	FindBySlug(ctx context.Context, slug string) (*tenantmodels.Tenant, error)
}

type AdminStore interface {
	Create(ctx context.Context, admin *adminmodels.Admin) error
	FindByEmailAndTenant(ctx context.Context, email string, tenantID id.TenantID, includeHash bool) (*adminmodels.Admin, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

// File is the seed document.
type File struct {
	Tenants []TenantSeed `yaml:"tenants"`
}

type TenantSeed struct {
	Slug     string       `yaml:"slug"`
	Name     string       `yaml:"name"`
	Domain   string       `yaml:"domain"`
	Inactive bool         `yaml:"inactive"`
	Settings SettingsSeed `yaml:"settings"`
	Admins   []AdminSeed  `yaml:"admins"`
}

type SettingsSeed struct {
	MaxUsers     int             `yaml:"max_users"`
	Features     map[string]bool `yaml:"features"`
	LogoURL      string          `yaml:"logo_url"`
	PrimaryColor string          `yaml:"primary_color"`
	TimeZone     string          `yaml:"time_zone"`
	Currency     string          `yaml:"currency"`
}

func (s SettingsSeed) toModel() tenantmodels.Settings {
	out := tenantmodels.Settings{
		MaxUsers: s.MaxUsers,
		Features: s.Features,
		TimeZone: s.TimeZone,
		Currency: s.Currency,
	}
	if s.LogoURL != "" || s.PrimaryColor != "" {
		out.Branding = &tenantmodels.Branding{LogoURL: s.LogoURL, PrimaryColor: s.PrimaryColor}
	}
	return out
}

type AdminSeed struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Result counts what a run created and skipped.
type Result struct {
	TenantsCreated int
	TenantsSkipped int
	AdminsCreated  int
	AdminsSkipped  int
}

type Seeder struct {
	tenants TenantStore
	admins  AdminStore
	hasher  PasswordHasher
	logger  *slog.Logger
	now     func() time.Time
}

func New(tenants TenantStore, admins AdminStore, hasher PasswordHasher, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		tenants: tenants,
		admins:  admins,
		hasher:  hasher,
		logger:  logger,
		now:     time.Now,
	}
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// Demo returns the built-in demo data set.
func Demo() (*File, error) {
	var f File
	if err := yaml.Unmarshal(demoSeed, &f); err != nil {
		return nil, fmt.Errorf("decode demo seed: %w", err)
	}
	return &f, nil
}

// LoadFile reads a seed document from path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Seed applies f. It stops at the first error; earlier records stay written.
func (s *Seeder) Seed(ctx context.Context, f *File) (Result, error) {
	var res Result
	for _, ts := range f.Tenants {
		tenant, created, err := s.ensureTenant(ctx, ts)
		if err != nil {
			return res, fmt.Errorf("seed tenant %q: %w", ts.Slug, err)
		}
		if created {
			res.TenantsCreated++
		} else {
			res.TenantsSkipped++
		}
		for _, as := range ts.Admins {
			created, err := s.ensureAdmin(ctx, tenant, as)
			if err != nil {
				return res, fmt.Errorf("seed admin %q in %q: %w", as.Email, ts.Slug, err)
			}
			if created {
				res.AdminsCreated++
			} else {
				res.AdminsSkipped++
			}
		}
	}
	s.logger.InfoContext(ctx, "seed applied",
		"tenants_created", res.TenantsCreated,
		"tenants_skipped", res.TenantsSkipped,
		"admins_created", res.AdminsCreated,
		"admins_skipped", res.AdminsSkipped,
	)
	return res, nil
}

func (s *Seeder) ensureTenant(ctx context.Context, ts TenantSeed) (*tenantmodels.Tenant, bool, error) {
	existing, err := s.tenants.FindBySlug(ctx, tenantmodels.NormalizeSlug(ts.Slug))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}

	now := s.now()
	t, err := tenantmodels.NewTenant(id.NewTenantID(), ts.Slug, ts.Name, ts.Domain, ts.Settings.toModel(), now)
	if err != nil {
		return nil, false, err
	}
	if ts.Inactive {
		if err := t.Deactivate(now); err != nil {
			return nil, false, err
		}
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, tenant *tenantmodels.Tenant, as AdminSeed) (bool, error) {
	email := adminmodels.NormalizeEmail(as.Email)
	_, err := s.admins.FindByEmailAndTenant(ctx, email, tenant.ID, false)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, err
	}

	hash, err := s.hasher.Hash(ctx, as.Password)
	if err != nil {
		return false, err
	}
	a, err := adminmodels.NewAdmin(id.NewAdminID(), tenant.ID, email, as.Name, hash, s.now())
	if err != nil {
		return false, err
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
