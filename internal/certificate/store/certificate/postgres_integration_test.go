//go:build integration

package certificate_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credchain/internal/canonical"
	"credchain/internal/certificate/models"
	"credchain/internal/certificate/store/certificate"
	"credchain/internal/fingerprint"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	store       *certificate.PostgresStore
	student     domain.StudentID
	institution domain.InstitutionID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = certificate.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "certificates", "students", "institutions"))

	s.student = domain.StudentID(uuid.New())
	s.institution = domain.InstitutionID(uuid.New())
	now := time.Now().UTC()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO students (id, seid, name, created_at) VALUES ($1, 'SEID123', 'Asha Rao', $2)`,
		uuid.UUID(s.student), now)
	s.Require().NoError(err)
	_, err = s.postgres.DB.ExecContext(ctx,
		`INSERT INTO institutions (id, name, govt_reg_no, status, created_at, updated_at) VALUES ($1, 'Demo Institute', 'GOVT-001', 'APPROVED', $2, $2)`,
		uuid.UUID(s.institution), now)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newCertificate(id string, issuedAt time.Time) *models.Certificate {
	meta := canonical.Object(
		canonical.Field("year", canonical.Number(2024)),
		canonical.Field("course", canonical.String("B.Sc")),
	)
	return &models.Certificate{
		ID:             id,
		StudentID:      s.student,
		InstitutionID:  s.institution,
		Type:           models.TypeTranscript,
		Metadata:       meta,
		Fingerprint:    fingerprint.Bind([]byte("%PDF"), canonical.Encode(meta)),
		ChainReference: "0x01",
		ChainNetwork:   "ledger",
		DocumentSize:   4,
		IssuedAt:       issuedAt,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	cert := s.newCertificate("CERT-1", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Create(ctx, cert))

	found, err := s.store.FindByID(ctx, "CERT-1")
	s.Require().NoError(err)
	s.Equal(cert.Fingerprint, found.Fingerprint)
	s.Equal(models.TypeTranscript, found.Type)
	s.True(canonical.Equal(cert.Metadata, found.Metadata))
	s.True(cert.IssuedAt.Equal(found.IssuedAt))

	_, err = s.store.FindByID(ctx, "CERT-2")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateIDConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newCertificate("CERT-1", time.Now().UTC())))

	err := s.store.Create(ctx, s.newCertificate("CERT-1", time.Now().UTC()))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestListsNewestFirst() {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Create(ctx, s.newCertificate("A", base)))
	s.Require().NoError(s.store.Create(ctx, s.newCertificate("B", base.Add(time.Hour))))

	byStudent, err := s.store.ListByStudent(ctx, s.student)
	s.Require().NoError(err)
	s.Require().Len(byStudent, 2)
	s.Equal("B", byStudent[0].ID)

	byInstitution, err := s.store.ListByInstitution(ctx, s.institution)
	s.Require().NoError(err)
	s.Len(byInstitution, 2)
}
