package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"credchain/internal/certificate/models"
	"credchain/internal/chain"
	"credchain/internal/fingerprint"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/sentinel"
)

const (
	methodCertificateID = "certificate_id"
	methodToken         = "token"
)

// Verifier compares registry records with their ledger anchors. It never
// mutates state and needs no caller identity.
type Verifier struct {
	certificates CertificateStore
	tokens       TokenResolver
	anchor       chain.AnchorClient
	*serviceConfig
}

func NewVerifier(certificates CertificateStore, tokens TokenResolver, anchor chain.AnchorClient, opts ...Option) (*Verifier, error) {
	if certificates == nil || tokens == nil || anchor == nil {
		return nil, errors.New("verifier: certificate store, token resolver and anchor client are required")
	}
	return &Verifier{
		certificates:  certificates,
		tokens:        tokens,
		anchor:        anchor,
		serviceConfig: newConfig(opts),
	}, nil
}

// VerifyByCertificateID reports whether the stored fingerprint of the
// certificate matches its anchor. A missing anchor is Verified=false; an
// unreachable ledger is ChainUnavailable, never false.
func (s *Verifier) VerifyByCertificateID(ctx context.Context, certificateID string) (*models.VerificationResult, error) {
	return s.verify(ctx, methodCertificateID, certificateID)
}

// VerifyByToken resolves a shareable token and verifies its certificate.
func (s *Verifier) VerifyByToken(ctx context.Context, token string) (*models.VerificationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token is required")
	}
	vt, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		s.metrics.IncVerification(methodToken, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return s.verify(ctx, methodToken, vt.CertificateID)
}

func (s *Verifier) verify(ctx context.Context, method, certificateID string) (*models.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.verify")
	defer span.End()
	span.SetAttributes(attribute.String("certificate.id", certificateID), attribute.String("verify.method", method))

	result, err := s.compare(ctx, certificateID)
	if err != nil {
		s.metrics.IncVerification(method, string(dErrors.CodeOf(err)))
		return nil, err
	}
	outcome := "mismatch"
	if result.Verified {
		outcome = "verified"
	}
	s.metrics.IncVerification(method, outcome)
	span.SetAttributes(attribute.Bool("verify.verified", result.Verified))
	return result, nil
}

func (s *Verifier) compare(ctx context.Context, certificateID string) (*models.VerificationResult, error) {
	if err := models.ValidateCertificateID(certificateID); err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	cert, err := s.certificates.FindByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}

	result := &models.VerificationResult{
		Certificate:    cert,
		ChainReference: cert.ChainReference,
		ChainNetwork:   cert.ChainNetwork,
	}
	anchor, err := s.anchor.Read(ctx, certificateID)
	switch {
	case err == nil:
		result.Anchor = anchor
		result.Verified = fingerprint.Equal(string(anchor.Fingerprint), string(cert.Fingerprint))
	case chain.IsNotFound(err):
		result.Verified = false
	case chain.IsUnavailable(err):
		return nil, dErrors.Wrap(err, dErrors.CodeChainUnavailable, "ledger unavailable, verification result unknown")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger anchor")
	}

	if !result.Verified {
		s.logger.WarnContext(ctx, "certificate failed verification",
			"certificate_id", certificateID,
			"anchored", result.Anchor != nil,
		)
	}
	return result, nil
}
