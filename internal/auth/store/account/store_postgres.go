package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"credchain/internal/auth/models"
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, role, subject_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(account.ID), models.NormalizeEmail(account.Email), account.Name, account.PasswordHash,
		string(account.Role), account.SubjectID, account.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("account email %s: %w", account.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const selectAccount = `
	SELECT id, email, name, password_hash, role, subject_id, created_at
	FROM accounts
`

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.scan(s.execer(ctx).QueryRowContext(ctx, selectAccount+`WHERE lower(email) = $1`, models.NormalizeEmail(email)))
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	return s.scan(s.execer(ctx).QueryRowContext(ctx, selectAccount+`WHERE id = $1`, uuid.UUID(id)))
}

func (s *PostgresStore) scan(row *sql.Row) (*models.Account, error) {
	var (
		account models.Account
		id      uuid.UUID
		role    string
	)
	err := row.Scan(&id, &account.Email, &account.Name, &account.PasswordHash, &role, &account.SubjectID, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.ID = domain.AccountID(id)
	account.Role = domain.Role(role)
	return &account, nil
}
