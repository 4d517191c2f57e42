package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	certmodels "credchain/internal/certificate/models"
	"credchain/internal/verifytoken/models"
	"credchain/internal/verifytoken/service/mocks"
	"credchain/internal/verifytoken/store"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/requestcontext"
	"credchain/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	tokens       *store.InMemoryStore
	certificates *mocks.MockCertificateStore
	auditMock    *mocks.MockAuditPublisher
	service      *Service

	now         time.Time
	ctx         context.Context
	student     uuid.UUID
	institution uuid.UUID
	cert        *certmodels.Certificate
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tokens = store.NewInMemory()
	s.certificates = mocks.NewMockCertificateStore(s.ctrl)
	s.auditMock = mocks.NewMockAuditPublisher(s.ctrl)
	s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	var err error
	s.service, err = New(s.tokens, s.certificates,
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		WithAuditPublisher(s.auditMock),
	)
	s.Require().NoError(err)

	s.now = time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.student = uuid.New()
	s.institution = uuid.New()
	s.cert = &certmodels.Certificate{
		ID:            "CERT-1",
		StudentID:     domain.StudentID(s.student),
		InstitutionID: domain.InstitutionID(s.institution),
	}
	s.certificates.EXPECT().FindByID(gomock.Any(), "CERT-1").Return(s.cert, nil).AnyTimes()
}

func (s *ServiceSuite) TestOwnerAndIssuerMayGenerate() {
	tokenPattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	for name, actor := range map[string]domain.Identity{
		"owning student":  testutil.StudentIdentity(s.student),
		"issuing officer": testutil.InstitutionIdentity(s.institution, domain.RoleInstitutionOfficer),
		"issuing admin":   testutil.InstitutionIdentity(s.institution, domain.RoleInstitutionAdmin),
	} {
		s.Run(name, func() {
			vt, err := s.service.Generate(s.ctx, actor, "CERT-1")
			s.Require().NoError(err)
			s.Regexp(tokenPattern, vt.Token)
			s.Equal("CERT-1", vt.CertificateID)
			s.Equal(actor.UserID, vt.CreatedBy)
			s.Equal(s.now.Add(24*time.Hour), vt.ExpiresAt)

			resolved, err := s.service.Resolve(s.ctx, vt.Token)
			s.Require().NoError(err)
			s.Equal("CERT-1", resolved.CertificateID)
		})
	}
}

func (s *ServiceSuite) TestOthersMayNotGenerate() {
	for name, actor := range map[string]domain.Identity{
		"other student":     testutil.StudentIdentity(uuid.New()),
		"other institution": testutil.InstitutionIdentity(uuid.New(), domain.RoleInstitutionAdmin),
		"government admin":  {SubjectID: s.institution, Role: domain.RoleGovAdmin},
	} {
		s.Run(name, func() {
			_, err := s.service.Generate(s.ctx, actor, "CERT-1")
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestGenerateForUnknownCertificate() {
	s.certificates.EXPECT().FindByID(gomock.Any(), "CERT-404").
		Return(nil, fmt.Errorf("certificate CERT-404: %w", sentinel.ErrNotFound))

	_, err := s.service.Generate(s.ctx, testutil.StudentIdentity(s.student), "CERT-404")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestExpiryBoundary() {
	vt, err := s.service.Generate(s.ctx, testutil.StudentIdentity(s.student), "CERT-1")
	s.Require().NoError(err)

	justBefore := requestcontext.WithTime(context.Background(), vt.ExpiresAt.Add(-time.Nanosecond))
	_, err = s.service.Resolve(justBefore, vt.Token)
	s.NoError(err)

	atExpiry := requestcontext.WithTime(context.Background(), vt.ExpiresAt)
	_, err = s.service.Resolve(atExpiry, vt.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeExpired))
}

func (s *ServiceSuite) TestResolveUnknownToken() {
	_, err := s.service.Resolve(s.ctx, "ffffffffffffffffffffffffffffffff")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestTokenCollisionIsRetried() {
	values := []string{"aaaa", "aaaa", "bbbb"}
	svc, err := New(s.tokens, s.certificates, WithTokenGenerator(func() (string, error) {
		v := values[0]
		values = values[1:]
		return v, nil
	}))
	s.Require().NoError(err)

	first, err := svc.Generate(s.ctx, testutil.StudentIdentity(s.student), "CERT-1")
	s.Require().NoError(err)
	second, err := svc.Generate(s.ctx, testutil.StudentIdentity(s.student), "CERT-1")
	s.Require().NoError(err)

	s.Equal("aaaa", first.Token)
	s.Equal("bbbb", second.Token)
}

func (s *ServiceSuite) TestAuditRecordsTokenCreation() {
	ctrl := gomock.NewController(s.T())
	publisher := mocks.NewMockAuditPublisher(ctrl)
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventVerificationTokenCreated), e.Action)
		s.Equal("CERT-1", e.Subject)
		return errors.New("audit unavailable")
	})
	svc, err := New(s.tokens, s.certificates, WithAuditPublisher(publisher))
	s.Require().NoError(err)

	_, err = svc.Generate(s.ctx, testutil.StudentIdentity(s.student), "CERT-1")
	s.NoError(err, "audit failures never fail token generation")
}

func (s *ServiceSuite) TestPurgeExpired() {
	for i, offset := range []time.Duration{-10 * 24 * time.Hour, -time.Hour} {
		s.Require().NoError(s.tokens.Save(s.ctx, &models.VerificationToken{
			Token:         fmt.Sprintf("expired-%d", i),
			CertificateID: "CERT-1",
			ExpiresAt:     s.now.Add(offset),
		}))
	}
	n, err := s.service.PurgeExpired(s.ctx, 7*24*time.Hour)
	s.Require().NoError(err)
	s.Equal(1, n)
}
