//go:build integration

package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"smartparking/internal/admin/models"
	"smartparking/internal/sentinel"
	tenantstore "smartparking/internal/tenant/store"
	id "smartparking/pkg/domain"
	"smartparking/pkg/testutil"
	"smartparking/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	tenantID id.TenantID
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.Postgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Reset(ctx))
	tenant := testutil.NewTenantBuilder().Build()
	s.Require().NoError(tenantstore.NewPostgres(s.postgres.DB).Create(ctx, tenant))
	s.tenantID = tenant.ID
}

func (s *PostgresStoreSuite) newAdmin(email string) *models.Admin {
	hash := strings.Repeat("ab", 32) + ":" + strings.Repeat("cd", 64)
	a, err := models.NewAdmin(id.NewAdminID(), s.tenantID, email, "Admin", hash, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return a
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	admin := s.newAdmin("boss@acme.com")
	s.Require().NoError(s.store.Create(ctx, admin))

	byID, err := s.store.FindByID(ctx, admin.ID)
	s.Require().NoError(err)
	s.Equal("boss@acme.com", byID.Email)
	s.Empty(byID.PasswordHash)

	withHash, err := s.store.FindByEmailAndTenant(ctx, "BOSS@acme.com", s.tenantID, true)
	s.Require().NoError(err)
	s.Equal(admin.PasswordHash, withHash.PasswordHash)

	_, err = s.store.FindByEmailAndTenant(ctx, "boss@acme.com", id.NewTenantID(), true)
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmail() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newAdmin("dup@acme.com")))
	s.ErrorIs(s.store.Create(ctx, s.newAdmin("dup@acme.com")), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestUnknownTenant() {
	ctx := context.Background()
	admin := s.newAdmin("ghost@acme.com")
	admin.TenantID = id.NewTenantID()
	s.ErrorIs(s.store.Create(ctx, admin), sentinel.ErrInvalidInput)
}

func (s *PostgresStoreSuite) TestUpdateKeepsHash() {
	ctx := context.Background()
	admin := s.newAdmin("old@acme.com")
	s.Require().NoError(s.store.Create(ctx, admin))

	loaded, err := s.store.FindByID(ctx, admin.ID)
	s.Require().NoError(err)
	s.Require().NoError(loaded.Rename("Renamed", time.Now()))
	s.Require().NoError(s.store.Update(ctx, loaded))

	withHash, err := s.store.FindByEmailAndTenant(ctx, "old@acme.com", s.tenantID, true)
	s.Require().NoError(err)
	s.Equal("Renamed", withHash.Name)
	s.Equal(admin.PasswordHash, withHash.PasswordHash)
}

func (s *PostgresStoreSuite) TestListCountRecordLoginDelete() {
	ctx := context.Background()
	a := s.newAdmin("amy@acme.com")
	z := s.newAdmin("zed@acme.com")
	s.Require().NoError(s.store.Create(ctx, z))
	s.Require().NoError(s.store.Create(ctx, a))

	list, err := s.store.ListByTenant(ctx, s.tenantID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("amy@acme.com", list[0].Email)

	n, err := s.store.CountByTenant(ctx, s.tenantID)
	s.Require().NoError(err)
	s.Equal(2, n)

	at := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.RecordLogin(ctx, a.ID, at))
	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastLoginAt)
	s.True(at.Equal(*found.LastLoginAt))

	s.Require().NoError(s.store.Delete(ctx, a.ID))
	s.ErrorIs(s.store.Delete(ctx, a.ID), ErrNotFound)
}
