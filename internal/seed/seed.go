// Package seed loads the demo dataset: one student, one approved
// institution with an officer, and a government administrator.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmodels "credchain/internal/auth/models"
	certmodels "credchain/internal/certificate/models"
	instmodels "credchain/internal/institution/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

const (
	DemoStudentSEID    = "SEID123"
	DemoStudentEmail   = "student@example.com"
	DemoInstitutionReg = "GOVT-001"
	DemoOfficerEmail   = "officer@demo.org"
	DemoGovAdminEmail  = "admin@gov.example"
	DemoPassword       = "password123"
)

type StudentStore interface {
	Create(ctx context.Context, student *certmodels.Student) error
	FindBySEID(ctx context.Context, seid string) (*certmodels.Student, error)
}

type InstitutionStore interface {
	Create(ctx context.Context, inst *instmodels.Institution) error
	FindByGovtRegNo(ctx context.Context, regNo string) (*instmodels.Institution, error)
}

type AccountStore interface {
	Create(ctx context.Context, account *authmodels.Account) error
	FindByEmail(ctx context.Context, email string) (*authmodels.Account, error)
}

type Stores struct {
	Students     StudentStore
	Institutions InstitutionStore
	Accounts     AccountStore
}

// Options tune the seeded data. Wallet, when set, is recorded as the demo
// institution's issuer address.
type Options struct {
	BcryptCost int
	Wallet     string
	Now        time.Time
}

// Result reports the ids of the seeded records.
type Result struct {
	StudentID     domain.StudentID
	InstitutionID domain.InstitutionID
	Created       int
}

// Run inserts the demo records that do not exist yet. Running it again is a
// no-op.
func Run(ctx context.Context, stores Stores, opts Options, logger *slog.Logger) (*Result, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	res := &Result{}
	student, created, err := ensureStudent(ctx, stores.Students, opts.Now)
	if err != nil {
		return nil, err
	}
	res.StudentID = student.ID
	res.count(created)

	inst, created, err := ensureInstitution(ctx, stores.Institutions, opts)
	if err != nil {
		return nil, err
	}
	res.InstitutionID = inst.ID
	res.count(created)

	govAdminID := uuid.New()
	accounts := []authmodels.Account{
		{Email: DemoStudentEmail, Name: student.Name, Role: domain.RoleStudent, SubjectID: uuid.UUID(student.ID)},
		{Email: DemoOfficerEmail, Name: "Admin User", Role: domain.RoleInstitutionAdmin, SubjectID: uuid.UUID(inst.ID)},
		{ID: domain.AccountID(govAdminID), Email: DemoGovAdminEmail, Name: "Registry Administrator", Role: domain.RoleGovAdmin, SubjectID: govAdminID},
	}
	for _, a := range accounts {
		if a.ID.IsNil() {
			a.ID = domain.AccountID(uuid.New())
		}
		a.PasswordHash = string(hash)
		a.CreatedAt = opts.Now
		created, err := ensureAccount(ctx, stores.Accounts, &a)
		if err != nil {
			return nil, err
		}
		res.count(created)
	}

	logger.InfoContext(ctx, "seed complete",
		"created", res.Created,
		"student_id", res.StudentID.String(),
		"institution_id", res.InstitutionID.String(),
	)
	return res, nil
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	}
}

func ensureStudent(ctx context.Context, students StudentStore, now time.Time) (*certmodels.Student, bool, error) {
	existing, err := students.FindBySEID(ctx, DemoStudentSEID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, fmt.Errorf("find demo student: %w", err)
	}
	student := &certmodels.Student{
		ID:          domain.StudentID(uuid.New()),
		SEID:        DemoStudentSEID,
		Name:        "Demo Student",
		Email:       DemoStudentEmail,
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   now,
	}
	if err := students.Create(ctx, student); err != nil {
		return nil, false, fmt.Errorf("create demo student: %w", err)
	}
	return student, true, nil
}

func ensureInstitution(ctx context.Context, institutions InstitutionStore, opts Options) (*instmodels.Institution, bool, error) {
	existing, err := institutions.FindByGovtRegNo(ctx, DemoInstitutionReg)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, fmt.Errorf("find demo institution: %w", err)
	}
	inst, err := instmodels.New(domain.InstitutionID(uuid.New()), "Demo Institute", DemoInstitutionReg, opts.Now)
	if err != nil {
		return nil, false, err
	}
	inst.ApplyStatus(instmodels.StatusApproved, opts.Now)
	if opts.Wallet != "" {
		inst.ApplyWallet(opts.Wallet, true, opts.Now)
	}
	if err := institutions.Create(ctx, inst); err != nil {
		return nil, false, fmt.Errorf("create demo institution: %w", err)
	}
	return inst, true, nil
}

func ensureAccount(ctx context.Context, accounts AccountStore, account *authmodels.Account) (bool, error) {
	_, err := accounts.FindByEmail(ctx, account.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, fmt.Errorf("find account %s: %w", account.Email, err)
	}
	if err := accounts.Create(ctx, account); err != nil {
		return false, fmt.Errorf("create account %s: %w", account.Email, err)
	}
	return true, nil
}
