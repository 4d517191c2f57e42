package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"credchain/internal/canonical"
	"credchain/internal/certificate/models"
	"credchain/internal/chain"
	"credchain/internal/fingerprint"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/requestcontext"
)

// IssueRequest carries everything needed to issue one certificate.
// StudentRef is either a student uuid or a SEID. An empty Type means DEGREE
// and an empty CertificateID means one is generated.
type IssueRequest struct {
	StudentRef    string
	Type          string
	Document      []byte
	Metadata      canonical.Value
	CertificateID string
}

// Issuer is the issuance orchestrator.
type Issuer struct {
	certificates CertificateStore
	students     StudentStore
	institutions InstitutionStore
	anchor       chain.AnchorClient
	*serviceConfig
}

func NewIssuer(certificates CertificateStore, students StudentStore, institutions InstitutionStore, anchor chain.AnchorClient, opts ...Option) (*Issuer, error) {
	if certificates == nil || students == nil || institutions == nil || anchor == nil {
		return nil, errors.New("issuer: certificate, student and institution stores and an anchor client are required")
	}
	return &Issuer{
		certificates:  certificates,
		students:      students,
		institutions:  institutions,
		anchor:        anchor,
		serviceConfig: newConfig(opts),
	}, nil
}

// Issue anchors and records a certificate on behalf of the actor's
// institution. When the ledger call fails the certificate is not persisted;
// an Unavailable failure may still have anchored the id, so callers retry
// with the same certificate id.
func (s *Issuer) Issue(ctx context.Context, actor domain.Identity, req IssueRequest) (*models.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue")
	defer span.End()

	cert, err := s.issue(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.IncCertificatesIssued(string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("certificate.id", cert.ID))
	s.metrics.IncCertificatesIssued("success")
	return cert, nil
}

func (s *Issuer) issue(ctx context.Context, actor domain.Identity, req IssueRequest) (*models.Certificate, error) {
	certType, err := validateIssueRequest(&req)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor); err != nil {
		return nil, err
	}

	student, err := s.resolveStudent(ctx, req.StudentRef)
	if err != nil {
		return nil, err
	}

	canonicalMetadata := canonical.Encode(req.Metadata)
	fp := fingerprint.Bind(req.Document, canonicalMetadata)

	certificateID := req.CertificateID
	if certificateID == "" {
		certificateID, err = s.newID()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate certificate id")
		}
	}

	receipt, err := s.anchor.Issue(ctx, certificateID, fp)
	if err != nil {
		s.logger.WarnContext(ctx, "ledger rejected or failed certificate anchor",
			"certificate_id", certificateID,
			"retryable", chain.IsRetryable(err),
			"error", err,
		)
		s.logAudit(ctx, audit.EventCertificateIssueFailed,
			"actor_id", actor.UserID.String(),
			"role", string(actor.Role),
			"certificate_id", certificateID,
			"institution_id", actor.InstitutionID().String(),
			"reason", chainFailureReason(err),
		)
		return nil, translateAnchorError(err, certificateID)
	}

	cert := &models.Certificate{
		ID:             certificateID,
		StudentID:      student.ID,
		InstitutionID:  actor.InstitutionID(),
		Type:           certType,
		Metadata:       req.Metadata,
		Fingerprint:    fp,
		ChainReference: receipt.Reference,
		ChainNetwork:   s.anchor.Network(),
		DocumentSize:   int64(len(req.Document)),
		IssuedAt:       requestcontext.Now(ctx),
	}
	if err := s.certificates.Create(ctx, cert); err != nil {
		// The anchor exists on the ledger without a registry row.
		s.logger.ErrorContext(ctx, "certificate anchored but not recorded",
			"certificate_id", certificateID,
			"chain_reference", receipt.Reference,
			"error", err,
		)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "certificate id already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record certificate")
	}

	s.logAudit(ctx, audit.EventCertificateIssued,
		"actor_id", actor.UserID.String(),
		"role", string(actor.Role),
		"certificate_id", cert.ID,
		"institution_id", cert.InstitutionID.String(),
		"student_id", cert.StudentID.String(),
		"fingerprint", string(cert.Fingerprint),
	)
	return cert, nil
}

func validateIssueRequest(req *IssueRequest) (models.Type, error) {
	if len(req.Document) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "document is required")
	}
	req.StudentRef = strings.TrimSpace(req.StudentRef)
	if req.StudentRef == "" {
		return "", dErrors.New(dErrors.CodeValidation, "studentId is required")
	}
	certType, err := models.ParseType(req.Type)
	if err != nil {
		return "", err
	}
	if req.CertificateID != "" {
		if err := models.ValidateCertificateID(req.CertificateID); err != nil {
			return "", err
		}
	}
	return certType, nil
}

// authorize checks that actor is institution staff of an approved institution.
func (s *Issuer) authorize(ctx context.Context, actor domain.Identity) error {
	if !actor.Role.IsInstitution() {
		return dErrors.New(dErrors.CodeForbidden, "only institution staff may issue certificates")
	}
	institution, err := s.institutions.FindByID(ctx, actor.InstitutionID())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "institution is not registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	if !institution.IsApproved() {
		return dErrors.New(dErrors.CodeForbidden, "institution is not approved to issue certificates")
	}
	return nil
}

// resolveStudent treats a uuid-shaped ref as a student id and anything else
// as a SEID.
func (s *Issuer) resolveStudent(ctx context.Context, ref string) (*models.Student, error) {
	var (
		student *models.Student
		err     error
	)
	if domain.LooksLikeUUID(ref) {
		id, parseErr := domain.ParseStudentID(ref)
		if parseErr != nil {
			return nil, parseErr
		}
		student, err = s.students.FindByID(ctx, id)
	} else {
		student, err = s.students.FindBySEID(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}
	return student, nil
}

func translateAnchorError(err error, certificateID string) error {
	switch {
	case chain.IsRejected(err):
		return dErrors.Wrap(err, dErrors.CodeChainRejected, "ledger rejected the certificate: "+chain.ReasonOf(err))
	case chain.IsUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeChainUnavailable, "ledger unavailable; retry with certificateId "+certificateID)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to anchor certificate")
	}
}

func chainFailureReason(err error) string {
	if reason := chain.ReasonOf(err); reason != "" {
		return reason
	}
	if kind, ok := chain.KindOf(err); ok {
		return string(kind)
	}
	return "unknown"
}
