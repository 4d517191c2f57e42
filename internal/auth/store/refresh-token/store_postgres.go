package refreshtoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"credchain/internal/auth/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
	txcontext "credchain/pkg/platform/tx"
)

// PostgresStore persists refresh token records in the refresh_tokens table.
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

func (s *PostgresStore) Create(ctx context.Context, token *models.RefreshTokenRecord) error {
	id := token.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, token, account_id, subject_id, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, token.Token, uuid.UUID(token.AccountID), token.SubjectID, string(token.Role), token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, token string) (*models.RefreshTokenRecord, error) {
	var (
		record    models.RefreshTokenRecord
		accountID uuid.UUID
		role      string
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, token, account_id, subject_id, role, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, token).Scan(&record.ID, &record.Token, &accountID, &record.SubjectID, &role, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	record.AccountID = domain.AccountID(accountID)
	record.Role = domain.Role(role)
	return &record, nil
}

// DeleteByToken removes every row holding token.
func (s *PostgresStore) DeleteByToken(ctx context.Context, token string) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return int(n), nil
}
