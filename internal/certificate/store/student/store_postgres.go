package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"credchain/internal/certificate/models"
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

func (s *PostgresStore) Create(ctx context.Context, student *models.Student) error {
	var dob sql.NullTime
	if !student.DateOfBirth.IsZero() {
		dob = sql.NullTime{Time: student.DateOfBirth, Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO students (id, seid, name, email, date_of_birth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(student.ID), student.SEID, student.Name, student.Email, dob, student.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("student seid %s: %w", student.SEID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

const selectStudent = `
	SELECT id, seid, name, email, date_of_birth, created_at
	FROM students
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.StudentID) (*models.Student, error) {
	student, err := scanStudent(s.execer(ctx).QueryRowContext(ctx, selectStudent+`WHERE id = $1`, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %s: %w", id, sentinel.ErrNotFound)
	}
	return student, err
}

func (s *PostgresStore) FindBySEID(ctx context.Context, seid string) (*models.Student, error) {
	student, err := scanStudent(s.execer(ctx).QueryRowContext(ctx, selectStudent+`WHERE seid = $1`, seid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student seid %s: %w", seid, sentinel.ErrNotFound)
	}
	return student, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]*models.Student, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
	rows, err := s.execer(ctx).QueryContext(ctx, selectStudent+`
		WHERE lower(name) LIKE $1 OR lower(seid) LIKE $1
		ORDER BY name, seid
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*models.Student, error) {
	var (
		student models.Student
		id      uuid.UUID
		dob     sql.NullTime
	)
	if err := row.Scan(&id, &student.SEID, &student.Name, &student.Email, &dob, &student.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	student.ID = domain.StudentID(id)
	if dob.Valid {
		student.DateOfBirth = dob.Time.UTC().Truncate(24 * time.Hour)
	}
	return &student, nil
}
