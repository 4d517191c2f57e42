//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credchain/internal/institution/models"
	"credchain/internal/institution/store"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "institutions"))
}

func (s *PostgresStoreSuite) create(regNo string) *models.Institution {
	inst, err := models.New(domain.InstitutionID(uuid.New()), "Institute "+regNo, regNo, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), inst))
	return inst
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	inst := s.create("GOVT-001")

	found, err := s.store.FindByGovtRegNo(ctx, "GOVT-001")
	s.Require().NoError(err)
	s.Equal(inst.ID, found.ID)
	s.Equal(models.StatusPending, found.Status)

	err = s.store.Create(ctx, &models.Institution{
		ID: domain.InstitutionID(uuid.New()), Name: "Clone", GovtRegNo: "GOVT-001",
		Status: models.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.FindByID(ctx, domain.InstitutionID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Concurrent approvals of the same pending institution must serialise on the
// row lock: exactly one sees PENDING.
func (s *PostgresStoreSuite) TestExecuteSerialisesTransitions() {
	ctx := context.Background()
	inst := s.create("GOVT-002")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, inst.ID,
				func(i *models.Institution) error { return i.CanTransitionTo(models.StatusApproved) },
				func(i *models.Institution) { i.ApplyStatus(models.StatusApproved, time.Now().UTC()) },
			)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	found, err := s.store.FindByID(ctx, inst.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, found.Status)
}

func (s *PostgresStoreSuite) TestListOrdersByName() {
	s.create("B-2")
	s.create("A-1")

	list, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Institute A-1", list[0].Name)
}
