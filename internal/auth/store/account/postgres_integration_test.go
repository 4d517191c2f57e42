//go:build integration

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credchain/internal/auth/models"
	"credchain/internal/auth/store/account"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = account.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "accounts"))
}

func (s *PostgresStoreSuite) TestCreateFindAndConflict() {
	ctx := context.Background()
	acc := &models.Account{
		ID:           domain.AccountID(uuid.New()),
		Email:        "Admin@Gov.example",
		Name:         "Registrar",
		PasswordHash: "$2a$10$abc",
		Role:         domain.RoleGovAdmin,
		SubjectID:    uuid.New(),
		CreatedAt:    time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(ctx, acc))

	found, err := s.store.FindByEmail(ctx, "admin@gov.example")
	s.Require().NoError(err)
	s.Equal(acc.ID, found.ID)
	s.Equal(domain.RoleGovAdmin, found.Role)

	byID, err := s.store.FindByID(ctx, acc.ID)
	s.Require().NoError(err)
	s.Equal("admin@gov.example", byID.Email)

	dup := *acc
	dup.ID = domain.AccountID(uuid.New())
	s.ErrorIs(s.store.Create(ctx, &dup), sentinel.ErrConflict)
}
