// Package service issues and resolves shareable verification tokens.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	certmodels "credchain/internal/certificate/models"
	"credchain/internal/platform/metrics"
	"credchain/internal/verifytoken/models"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/requestcontext"
)

// DefaultTTL is how long a generated token verifies its certificate.
const DefaultTTL = 24 * time.Hour

const saveAttempts = 3

type Store interface {
	Save(ctx context.Context, token *models.VerificationToken) error
	Find(ctx context.Context, token string) (*models.VerificationToken, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

type CertificateStore interface {
	FindByID(ctx context.Context, id string) (*certmodels.Certificate, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	tokens         Store
	certificates   CertificateStore
	ttl            time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	newToken       func() (string, error)
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTokenGenerator overrides the random token source.
func WithTokenGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		s.newToken = fn
	}
}

func New(tokens Store, certificates CertificateStore, opts ...Option) (*Service, error) {
	if tokens == nil || certificates == nil {
		return nil, errors.New("verification token service: token and certificate stores are required")
	}
	s := &Service{
		tokens:       tokens,
		certificates: certificates,
		ttl:          DefaultTTL,
		logger:       slog.Default(),
		newToken:     randomToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// randomToken returns 32 lowercase hex characters from 16 random bytes.
func randomToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Generate creates a token for certificateID. Only the student the
// certificate was issued to, or staff of the issuing institution, may do so.
func (s *Service) Generate(ctx context.Context, actor domain.Identity, certificateID string) (*models.VerificationToken, error) {
	certificateID = strings.TrimSpace(certificateID)
	if err := certmodels.ValidateCertificateID(certificateID); err != nil {
		return nil, err
	}
	cert, err := s.certificates.FindByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	if !mayShare(actor, cert) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the certificate holder or its issuer may share it")
	}

	now := requestcontext.Now(ctx)
	vt := &models.VerificationToken{
		CertificateID: cert.ID,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}
	for attempt := 1; ; attempt++ {
		vt.Token, err = s.newToken()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification token")
		}
		err = s.tokens.Save(ctx, vt)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) || attempt == saveAttempts {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification token")
		}
	}

	s.metrics.IncVerificationTokensIssued()
	s.logAudit(ctx, actor, cert.ID)
	return vt, nil
}

func mayShare(actor domain.Identity, cert *certmodels.Certificate) bool {
	switch {
	case actor.Role == domain.RoleStudent:
		return cert.IssuedTo(actor.StudentID())
	case actor.Role.IsInstitution():
		return cert.IssuedBy(actor.InstitutionID())
	}
	return false
}

// Resolve returns a live token. Unknown tokens are NotFound and tokens at or
// past their expiry are Expired.
func (s *Service) Resolve(ctx context.Context, token string) (*models.VerificationToken, error) {
	vt, err := s.tokens.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification token not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification token")
	}
	if vt.IsExpired(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeExpired, "verification token expired")
	}
	return vt, nil
}

// PurgeExpired deletes tokens that expired more than retention ago.
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := requestcontext.Now(ctx).Add(-retention)
	n, err := s.tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge verification tokens")
	}
	s.logger.InfoContext(ctx, "purged expired verification tokens", "count", n)
	return n, nil
}

func (s *Service) logAudit(ctx context.Context, actor domain.Identity, certificateID string) {
	event := audit.EventVerificationTokenCreated
	s.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"log_type", "audit",
		"actor_id", actor.UserID.String(),
		"role", string(actor.Role),
		"certificate_id", certificateID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		ActorID:   actor.UserID.String(),
		ActorRole: string(actor.Role),
		Subject:   certificateID,
	})
	if err != nil {
		s.metrics.IncAuditEventsDropped()
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
