// Package service administers institutions: registration, approval,
// suspension and issuer authorization on the ledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"credchain/internal/chain"
	"credchain/internal/institution/models"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, inst *models.Institution) error
	FindByID(ctx context.Context, id domain.InstitutionID) (*models.Institution, error)
	FindByGovtRegNo(ctx context.Context, regNo string) (*models.Institution, error)
	List(ctx context.Context) ([]*models.Institution, error)
	Execute(ctx context.Context, id domain.InstitutionID, validate func(*models.Institution) error, mutate func(*models.Institution)) (*models.Institution, error)
}

// IssuerRegistry grants and revokes issuing rights on the ledger.
type IssuerRegistry interface {
	SetIssuerAuthorization(ctx context.Context, address string, allowed bool) (*chain.Receipt, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	institutions   Store
	issuers        IssuerRegistry
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(institutions Store, issuers IssuerRegistry, opts ...Option) (*Service, error) {
	if institutions == nil || issuers == nil {
		return nil, errors.New("institution service: store and issuer registry are required")
	}
	s := &Service{
		institutions: institutions,
		issuers:      issuers,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a PENDING institution.
func (s *Service) Register(ctx context.Context, name, govtRegNo string) (*models.Institution, error) {
	inst, err := models.New(domain.InstitutionID(uuid.New()), name, govtRegNo, requestcontext.Now(ctx))
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, dErrors.New(dErrors.CodeValidation, de.Msg)
		}
		return nil, err
	}
	if err := s.institutions.Create(ctx, inst); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an institution with this registration number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create institution")
	}
	s.logger.InfoContext(ctx, "institution registered",
		"institution_id", inst.ID.String(),
		"govt_reg_no", inst.GovtRegNo,
	)
	return inst, nil
}

func (s *Service) Get(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	inst, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return inst, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Institution, error) {
	insts, err := s.institutions.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list institutions")
	}
	return insts, nil
}

// Approve moves a PENDING or SUSPENDED institution to APPROVED.
func (s *Service) Approve(ctx context.Context, actor domain.Identity, id domain.InstitutionID) (*models.Institution, error) {
	return s.transition(ctx, actor, id, models.StatusApproved, audit.EventInstitutionApproved)
}

// Suspend moves an APPROVED institution to SUSPENDED. Its staff can no
// longer issue certificates; existing certificates still verify.
func (s *Service) Suspend(ctx context.Context, actor domain.Identity, id domain.InstitutionID) (*models.Institution, error) {
	return s.transition(ctx, actor, id, models.StatusSuspended, audit.EventInstitutionSuspended)
}

func (s *Service) transition(ctx context.Context, actor domain.Identity, id domain.InstitutionID, next models.Status, event audit.AuditEvent) (*models.Institution, error) {
	if err := requireGovAdmin(actor); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	inst, err := s.institutions.Execute(ctx, id,
		func(i *models.Institution) error {
			if err := i.CanTransitionTo(next); err != nil {
				return dErrors.New(dErrors.CodeConflict, "institution is "+string(i.Status))
			}
			return nil
		},
		func(i *models.Institution) {
			i.ApplyStatus(next, now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	s.logAudit(ctx, event, actor, inst, "")
	return inst, nil
}

// SetIssuerAuthorization grants or revokes the ledger issuing right of wallet
// and records it on the institution. The ledger call comes first; if the
// record update fails afterwards the ledger state stands and the call can be
// repeated.
func (s *Service) SetIssuerAuthorization(ctx context.Context, actor domain.Identity, id domain.InstitutionID, wallet string, allowed bool) (*models.Institution, *chain.Receipt, error) {
	if err := requireGovAdmin(actor); err != nil {
		return nil, nil, err
	}
	wallet = strings.TrimSpace(wallet)
	if !common.IsHexAddress(wallet) {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "wallet must be a 20-byte hex address")
	}
	wallet = common.HexToAddress(wallet).Hex()

	if _, err := s.institutions.FindByID(ctx, id); err != nil {
		return nil, nil, wrapStoreErr(err)
	}

	receipt, err := s.issuers.SetIssuerAuthorization(ctx, wallet, allowed)
	if err != nil {
		s.logger.WarnContext(ctx, "issuer authorization not applied on ledger",
			"institution_id", id.String(),
			"wallet", wallet,
			"error", err,
		)
		switch {
		case chain.IsRejected(err):
			return nil, nil, dErrors.Wrap(err, dErrors.CodeChainRejected, "ledger rejected the authorization: "+chain.ReasonOf(err))
		case chain.IsUnavailable(err):
			return nil, nil, dErrors.Wrap(err, dErrors.CodeChainUnavailable, "ledger unavailable")
		default:
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set issuer authorization")
		}
	}

	now := requestcontext.Now(ctx)
	inst, err := s.institutions.Execute(ctx, id,
		func(*models.Institution) error { return nil },
		func(i *models.Institution) { i.ApplyWallet(wallet, allowed, now) },
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "issuer authorization applied on ledger but not recorded",
			"institution_id", id.String(),
			"wallet", wallet,
			"chain_reference", receipt.Reference,
			"error", err,
		)
		return nil, nil, wrapStoreErr(err)
	}

	reason := "revoked"
	if allowed {
		reason = "granted"
	}
	s.logAudit(ctx, audit.EventIssuerAuthorizationChanged, actor, inst, reason,
		"wallet", wallet,
		"chain_reference", receipt.Reference,
	)
	return inst, receipt, nil
}

func requireGovAdmin(actor domain.Identity) error {
	if actor.Role != domain.RoleGovAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only government administrators may manage institutions")
	}
	return nil
}

func wrapStoreErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "institution not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update institution")
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor domain.Identity, inst *models.Institution, reason string, extra ...string) {
	s.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"log_type", "audit",
		"actor_id", actor.UserID.String(),
		"institution_id", inst.ID.String(),
		"status", string(inst.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.auditPublisher == nil {
		return
	}
	var metadata map[string]string
	if len(extra) > 0 {
		metadata = make(map[string]string, len(extra)/2)
		for i := 0; i+1 < len(extra); i += 2 {
			metadata[extra[i]] = extra[i+1]
		}
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		ActorID:   actor.UserID.String(),
		ActorRole: string(actor.Role),
		Subject:   inst.ID.String(),
		Reason:    reason,
		Metadata:  metadata,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
