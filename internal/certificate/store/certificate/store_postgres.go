package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"credchain/internal/canonical"
	"credchain/internal/certificate/models"
	"credchain/internal/fingerprint"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
	txcontext "credchain/pkg/platform/tx"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create inserts cert. Metadata is stored in canonical form.
func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO certificates (certificate_id, student_id, institution_id, type, metadata,
			fingerprint, chain_reference, chain_network, document_size, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, cert.ID, uuid.UUID(cert.StudentID), uuid.UUID(cert.InstitutionID), string(cert.Type),
		string(canonical.Encode(cert.Metadata)), string(cert.Fingerprint), cert.ChainReference,
		cert.ChainNetwork, cert.DocumentSize, cert.IssuedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("certificate %s: %w", cert.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

const selectCertificate = `
	SELECT certificate_id, student_id, institution_id, type, metadata, fingerprint,
		chain_reference, chain_network, document_size, issued_at
	FROM certificates
`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	cert, err := scanCertificate(s.execer(ctx).QueryRowContext(ctx, selectCertificate+`WHERE certificate_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("certificate %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return cert, nil
}

func (s *PostgresStore) ListByInstitution(ctx context.Context, id domain.InstitutionID) ([]*models.Certificate, error) {
	return s.list(ctx, selectCertificate+`WHERE institution_id = $1 ORDER BY issued_at DESC, certificate_id`, uuid.UUID(id))
}

func (s *PostgresStore) ListByStudent(ctx context.Context, id domain.StudentID) ([]*models.Certificate, error) {
	return s.list(ctx, selectCertificate+`WHERE student_id = $1 ORDER BY issued_at DESC, certificate_id`, uuid.UUID(id))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Certificate, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Certificate, 0)
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (*models.Certificate, error) {
	var (
		cert          models.Certificate
		studentID     uuid.UUID
		institutionID uuid.UUID
		certType      string
		metadata      string
		fp            string
	)
	err := row.Scan(&cert.ID, &studentID, &institutionID, &certType, &metadata, &fp,
		&cert.ChainReference, &cert.ChainNetwork, &cert.DocumentSize, &cert.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	value, err := canonical.Parse([]byte(metadata))
	if err != nil {
		return nil, fmt.Errorf("decode metadata of certificate %s: %w", cert.ID, err)
	}
	cert.StudentID = domain.StudentID(studentID)
	cert.InstitutionID = domain.InstitutionID(institutionID)
	cert.Type = models.Type(certType)
	cert.Metadata = value
	cert.Fingerprint = fingerprint.Fingerprint(fp)
	return &cert, nil
}
