package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"smartparking/internal/sentinel"
	"smartparking/internal/tenant/models"
	id "smartparking/pkg/domain"
)

const selectTenant = `SELECT id, slug, name, domain, is_active, settings, created_at, updated_at FROM tenants`

// PostgresStore keeps tenants in the tenants table. Settings live in a JSONB
// column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts t. A taken slug is sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required: %w", sentinel.ErrInvalidInput)
	}
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("encode tenant settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tenants (id, slug, name, domain, is_active, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(t.ID), models.NormalizeSlug(t.Slug), t.Name, t.Domain, t.Active, settings, t.CreatedAt, t.UpdatedAt)
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return fmt.Errorf("tenant slug %q is taken: %w", t.Slug, sentinel.ErrAlreadyUsed)
	default:
		return fmt.Errorf("insert tenant: %w", err)
	}
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.one(ctx, "id", uuid.UUID(tenantID))
}

// FindBySlug matches the normalized slug.
func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return s.one(ctx, "slug", models.NormalizeSlug(slug))
}

func (s *PostgresStore) one(ctx context.Context, column string, arg any) (*models.Tenant, error) {
	t, err := scanTenant(s.db.QueryRowContext(ctx, selectTenant+` WHERE `+column+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant by %s: %w", column, err)
	}
	return t, nil
}

// List returns every tenant ordered by slug.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, selectTenant+` ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("list tenants: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&n)
	return n, err
}

// Update writes the mutable columns. The slug and creation time are fixed.
func (s *PostgresStore) Update(ctx context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required: %w", sentinel.ErrInvalidInput)
	}
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("encode tenant settings: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tenants SET name = $2, domain = $3, is_active = $4, settings = $5, updated_at = $6 WHERE id = $1`,
		uuid.UUID(t.ID), t.Name, t.Domain, t.Active, settings, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update tenant: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (*models.Tenant, error) {
	var (
		t        models.Tenant
		raw      uuid.UUID
		settings []byte
	)
	if err := row.Scan(&raw, &t.Slug, &t.Name, &t.Domain, &t.Active, &settings, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ID = id.TenantID(raw)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, fmt.Errorf("decode tenant settings: %w", err)
		}
	}
	return &t, nil
}
