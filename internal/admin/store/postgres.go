package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"smartparking/internal/admin/models"
	"smartparking/internal/sentinel"
	id "smartparking/pkg/domain"
)

const (
	adminColumns         = `id, tenant_id, email, name, is_active, last_login_at, created_at, updated_at`
	adminColumnsWithHash = adminColumns + `, password_hash`
)

// PostgresStore persists administrators in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Admin) error {
	if a == nil {
		return fmt.Errorf("admin is required: %w", sentinel.ErrInvalidInput)
	}
	query := `
		INSERT INTO admins (` + adminColumnsWithHash + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.TenantID),
		models.NormalizeEmail(a.Email),
		a.Name,
		a.Active,
		a.LastLoginAt,
		a.CreatedAt,
		a.UpdatedAt,
		a.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin email must be unique per tenant: %w", sentinel.ErrAlreadyUsed)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("admin tenant does not exist: %w", sentinel.ErrInvalidInput)
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, adminID id.AdminID) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	a, err := scanAdmin(s.db.QueryRowContext(ctx, query, uuid.UUID(adminID)), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return a, nil
}

// FindByEmailAndTenant selects the password hash only when includeHash is set.
func (s *PostgresStore) FindByEmailAndTenant(ctx context.Context, email string, tenantID id.TenantID, includeHash bool) (*models.Admin, error) {
	columns := adminColumns
	if includeHash {
		columns = adminColumnsWithHash
	}
	query := `SELECT ` + columns + ` FROM admins WHERE tenant_id = $1 AND email = $2`
	a, err := scanAdmin(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), models.NormalizeEmail(email)), includeHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE tenant_id = $1 ORDER BY email`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE tenant_id = $1`, uuid.UUID(tenantID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// Update writes the mutable fields. An empty PasswordHash keeps the stored one.
func (s *PostgresStore) Update(ctx context.Context, a *models.Admin) error {
	if a == nil {
		return fmt.Errorf("admin is required: %w", sentinel.ErrInvalidInput)
	}
	query := `
		UPDATE admins
		SET email = $2,
		    name = $3,
		    is_active = $4,
		    password_hash = COALESCE(NULLIF($5, ''), password_hash),
		    updated_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID),
		models.NormalizeEmail(a.Email),
		a.Name,
		a.Active,
		a.PasswordHash,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin email must be unique per tenant: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update admin: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) RecordLogin(ctx context.Context, adminID id.AdminID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE admins SET last_login_at = $2 WHERE id = $1`, uuid.UUID(adminID), at)
	if err != nil {
		return fmt.Errorf("record admin login: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, adminID id.AdminID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, uuid.UUID(adminID))
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner, withHash bool) (*models.Admin, error) {
	var (
		a           models.Admin
		adminID     uuid.UUID
		tenantID    uuid.UUID
		lastLoginAt sql.NullTime
	)
	dest := []any{&adminID, &tenantID, &a.Email, &a.Name, &a.Active, &lastLoginAt, &a.CreatedAt, &a.UpdatedAt}
	if withHash {
		dest = append(dest, &a.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.ID = id.AdminID(adminID)
	a.TenantID = id.TenantID(tenantID)
	if lastLoginAt.Valid {
		at := lastLoginAt.Time
		a.LastLoginAt = &at
	}
	return &a, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
