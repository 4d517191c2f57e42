// Package service implements certificate issuance and verification.
//
// Issuance is a fixed sequence: resolve student, canonicalize metadata, bind
// the fingerprint, pick the id, anchor on the ledger, then persist. Nothing
// is persisted before the ledger accepts the anchor, and no database
// transaction spans the ledger call.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"credchain/internal/certificate/models"
	instmodels "credchain/internal/institution/models"
	"credchain/internal/platform/metrics"
	vtmodels "credchain/internal/verifytoken/models"
	"credchain/pkg/attrs"
	"credchain/pkg/domain"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/requestcontext"
)

const tracerName = "credchain/internal/certificate/service"

type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	ListByInstitution(ctx context.Context, id domain.InstitutionID) ([]*models.Certificate, error)
	ListByStudent(ctx context.Context, id domain.StudentID) ([]*models.Certificate, error)
}

type StudentStore interface {
	FindByID(ctx context.Context, id domain.StudentID) (*models.Student, error)
	FindBySEID(ctx context.Context, seid string) (*models.Student, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Student, error)
}

type InstitutionStore interface {
	FindByID(ctx context.Context, id domain.InstitutionID) (*instmodels.Institution, error)
}

// TokenResolver looks up shareable verification tokens. It returns NotFound
// for unknown tokens and Expired for tokens past their expiry.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*vtmodels.VerificationToken, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	newID          func() (string, error)
	tracer         trace.Tracer
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) {
		c.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithIDGenerator overrides how certificate ids are generated when the
// caller does not supply one.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(c *serviceConfig) {
		c.newID = fn
	}
}

func newConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{
		logger: slog.Default(),
		newID:  RandomCertificateID,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// RandomCertificateID returns 16 lowercase hex characters from 8 random bytes.
func RandomCertificateID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

func (c *serviceConfig) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	c.logger.InfoContext(ctx, string(event), args...)
	if c.auditPublisher == nil {
		return
	}
	err := c.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		ActorRole: attrs.ExtractString(attributes, "role"),
		Subject:   attrs.ExtractString(attributes, "certificate_id"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		Metadata:  attrs.ExtractMap(attributes, "institution_id", "student_id", "fingerprint"),
	})
	if err != nil {
		c.metrics.IncAuditEventsDropped()
		c.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
