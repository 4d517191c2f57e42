package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"credchain/internal/institution/models"
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

func (s *PostgresStore) Create(ctx context.Context, inst *models.Institution) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO institutions (id, name, govt_reg_no, status, wallet, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(inst.ID), inst.Name, inst.GovtRegNo, string(inst.Status), inst.Wallet, inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("institution %s: %w", inst.GovtRegNo, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert institution: %w", err)
	}
	return nil
}

const selectInstitution = `
	SELECT id, name, govt_reg_no, status, wallet, created_at, updated_at
	FROM institutions
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	inst, err := scanInstitution(s.execer(ctx).QueryRowContext(ctx, selectInstitution+`WHERE id = $1`, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("institution %s: %w", id, sentinel.ErrNotFound)
	}
	return inst, err
}

func (s *PostgresStore) FindByGovtRegNo(ctx context.Context, regNo string) (*models.Institution, error) {
	inst, err := scanInstitution(s.execer(ctx).QueryRowContext(ctx, selectInstitution+`WHERE govt_reg_no = $1`, regNo))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("institution %s: %w", regNo, sentinel.ErrNotFound)
	}
	return inst, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Institution, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectInstitution+`ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Institution, 0)
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate institutions: %w", err)
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate and mutate
// on it and writes the result back in the same transaction.
func (s *PostgresStore) Execute(ctx context.Context, id domain.InstitutionID, validate func(*models.Institution) error, mutate func(*models.Institution)) (*models.Institution, error) {
	var updated *models.Institution
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		inst, err := scanInstitution(s.execer(ctx).QueryRowContext(ctx, selectInstitution+`WHERE id = $1 FOR UPDATE`, uuid.UUID(id)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("institution %s: %w", id, sentinel.ErrNotFound)
			}
			return err
		}
		if err := validate(inst); err != nil {
			return err
		}
		mutate(inst)
		_, err = s.execer(ctx).ExecContext(ctx, `
			UPDATE institutions SET name = $2, status = $3, wallet = $4, updated_at = $5
			WHERE id = $1
		`, uuid.UUID(inst.ID), inst.Name, string(inst.Status), inst.Wallet, inst.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update institution: %w", err)
		}
		updated = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row scanner) (*models.Institution, error) {
	var (
		inst   models.Institution
		id     uuid.UUID
		status string
	)
	if err := row.Scan(&id, &inst.Name, &inst.GovtRegNo, &status, &inst.Wallet, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan institution: %w", err)
	}
	inst.ID = domain.InstitutionID(id)
	inst.Status = models.Status(status)
	return &inst, nil
}
