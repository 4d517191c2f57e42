//go:build integration

package refreshtoken_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credchain/internal/auth/models"
	refreshtoken "credchain/internal/auth/store/refresh-token"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *refreshtoken.PostgresStore
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
	s.store = refreshtoken.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "refresh_tokens"))
}

func (s *PostgresStoreSuite) record(token string, expiresAt time.Time) *models.RefreshTokenRecord {
	return &models.RefreshTokenRecord{
		ID:        uuid.New(),
		Token:     token,
		AccountID: domain.AccountID(uuid.New()),
		SubjectID: uuid.New(),
		Role:      domain.RoleInstitutionAdmin,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		ExpiresAt: expiresAt.UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := s.record("ref_pg", time.Now().Add(time.Hour))
	s.Require().NoError(s.store.Create(ctx, rec))

	found, err := s.store.Find(ctx, "ref_pg")
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)
	s.Equal(rec.AccountID, found.AccountID)
	s.Equal(rec.Role, found.Role)
	s.True(rec.ExpiresAt.Equal(found.ExpiresAt))
}

func (s *PostgresStoreSuite) TestDeleteByTokenRemovesAllRows() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.record("dup", time.Now().Add(time.Hour))))
	s.Require().NoError(s.store.Create(ctx, s.record("dup", time.Now().Add(time.Hour))))

	n, err := s.store.DeleteByToken(ctx, "dup")
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.Find(ctx, "dup")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteExpired() {
	ctx := context.Background()
	now := time.Now()
	s.Require().NoError(s.store.Create(ctx, s.record("old", now.Add(-time.Hour))))
	s.Require().NoError(s.store.Create(ctx, s.record("new", now.Add(time.Hour))))

	n, err := s.store.DeleteExpired(ctx, now)
	s.Require().NoError(err)
	s.Equal(1, n)
}
