package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credchain/internal/chain"
	"credchain/internal/institution/models"
	"credchain/internal/institution/service/mocks"
	"credchain/internal/institution/store"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/requestcontext"
)

const wallet = "0x0000000000000000000000000000000000001234"

type ServiceSuite struct {
	suite.Suite
	institutions *store.InMemoryStore
	issuers      *mocks.MockIssuerRegistry
	auditMock    *mocks.MockAuditPublisher
	service      *Service

	ctx   context.Context
	now   time.Time
	admin domain.Identity
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.institutions = store.NewInMemory()
	s.issuers = mocks.NewMockIssuerRegistry(ctrl)
	s.auditMock = mocks.NewMockAuditPublisher(ctrl)

	svc, err := New(s.institutions, s.issuers,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditMock),
	)
	s.Require().NoError(err)
	s.service = svc

	s.now = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.admin = domain.Identity{
		SubjectID: uuid.New(),
		Role:      domain.RoleGovAdmin,
		UserID:    domain.AccountID(uuid.New()),
	}
}

func (s *ServiceSuite) register(name, regNo string) *models.Institution {
	inst, err := s.service.Register(s.ctx, name, regNo)
	s.Require().NoError(err)
	return inst
}

func (s *ServiceSuite) TestRegister() {
	inst := s.register("Demo Institute", "GOVT-001")
	s.Equal(models.StatusPending, inst.Status)
	s.Equal(s.now, inst.CreatedAt)

	_, err := s.service.Register(s.ctx, "Other", "GOVT-001")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.Register(s.ctx, " ", "GOVT-002")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestApproveAndSuspend() {
	inst := s.register("Demo Institute", "GOVT-001")

	s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventInstitutionApproved), e.Action)
		s.Equal(inst.ID.String(), e.Subject)
		s.Equal(s.admin.UserID.String(), e.ActorID)
		return nil
	})
	approved, err := s.service.Approve(s.ctx, s.admin, inst.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)

	s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	suspended, err := s.service.Suspend(s.ctx, s.admin, inst.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, suspended.Status)

	stored, err := s.service.Get(s.ctx, inst.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, stored.Status)
}

func (s *ServiceSuite) TestInvalidTransitionsConflict() {
	inst := s.register("Demo Institute", "GOVT-001")

	_, err := s.service.Suspend(s.ctx, s.admin, inst.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "pending institutions cannot be suspended")

	s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	_, err = s.service.Approve(s.ctx, s.admin, inst.ID)
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, s.admin, inst.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestOnlyGovAdminManages() {
	inst := s.register("Demo Institute", "GOVT-001")
	officer := domain.Identity{SubjectID: uuid.UUID(inst.ID), Role: domain.RoleInstitutionAdmin, UserID: domain.AccountID(uuid.New())}

	_, err := s.service.Approve(s.ctx, officer, inst.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, _, err = s.service.SetIssuerAuthorization(s.ctx, officer, inst.ID, wallet, true)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestUnknownInstitution() {
	_, err := s.service.Approve(s.ctx, s.admin, domain.InstitutionID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(s.ctx, domain.InstitutionID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, _, err = s.service.SetIssuerAuthorization(s.ctx, s.admin, domain.InstitutionID(uuid.New()), wallet, true)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSetIssuerAuthorization() {
	inst := s.register("Demo Institute", "GOVT-001")

	s.Run("grant records the wallet", func() {
		s.issuers.EXPECT().SetIssuerAuthorization(gomock.Any(), wallet, true).
			Return(&chain.Receipt{Reference: "0xgrant", BlockNumber: 7}, nil)
		s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventIssuerAuthorizationChanged), e.Action)
			s.Equal("granted", e.Reason)
			s.Equal(wallet, e.Metadata["wallet"])
			s.Equal("0xgrant", e.Metadata["chain_reference"])
			return nil
		})

		updated, receipt, err := s.service.SetIssuerAuthorization(s.ctx, s.admin, inst.ID, "  "+wallet+" ", true)
		s.Require().NoError(err)
		s.Equal("0xgrant", receipt.Reference)
		s.Equal(wallet, updated.Wallet)
	})

	s.Run("revoke clears the wallet", func() {
		s.issuers.EXPECT().SetIssuerAuthorization(gomock.Any(), wallet, false).
			Return(&chain.Receipt{Reference: "0xrevoke"}, nil)
		s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		updated, _, err := s.service.SetIssuerAuthorization(s.ctx, s.admin, inst.ID, wallet, false)
		s.Require().NoError(err)
		s.Empty(updated.Wallet)
	})
}

func (s *ServiceSuite) TestSetIssuerAuthorizationFailures() {
	inst := s.register("Demo Institute", "GOVT-001")

	s.Run("malformed wallet never reaches the ledger", func() {
		_, _, err := s.service.SetIssuerAuthorization(s.ctx, s.admin, inst.ID, "not-a-wallet", true)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	tests := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"not the contract owner", chain.Rejected("setIssuer", "caller is not the owner", nil), dErrors.CodeChainRejected},
		{"ledger down", chain.Unavailable("setIssuer", errors.New("dial tcp: refused")), dErrors.CodeChainUnavailable},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.issuers.EXPECT().SetIssuerAuthorization(gomock.Any(), wallet, true).Return(nil, tt.err)

			_, _, err := s.service.SetIssuerAuthorization(s.ctx, s.admin, inst.ID, wallet, true)
			s.True(dErrors.HasCode(err, tt.code))

			stored, err := s.service.Get(s.ctx, inst.ID)
			s.Require().NoError(err)
			s.Empty(stored.Wallet, "a failed ledger call leaves the record unchanged")
		})
	}
}

func (s *ServiceSuite) TestAuditFailureDoesNotFailApproval() {
	inst := s.register("Demo Institute", "GOVT-001")
	s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox full"))

	approved, err := s.service.Approve(s.ctx, s.admin, inst.ID)
	s.Require().NoError(err)
	s.True(approved.IsApproved())
}

func (s *ServiceSuite) TestConcurrentApprovalSucceedsOnce() {
	inst := s.register("Demo Institute", "GOVT-001")
	s.auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.Approve(s.ctx, s.admin, inst.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, successes)
}

func (s *ServiceSuite) TestList() {
	s.register("Zeta College", "GOVT-002")
	s.register("Alpha University", "GOVT-003")

	insts, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(insts, 2)
	s.Equal("Alpha University", insts[0].Name)
}
