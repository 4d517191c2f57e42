package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	accountstore "credchain/internal/auth/store/account"
	studentstore "credchain/internal/certificate/store/student"
	instmodels "credchain/internal/institution/models"
	inststore "credchain/internal/institution/store"
	"credchain/pkg/domain"
)

func newStores() (Stores, *accountstore.InMemoryStore, *inststore.InMemoryStore) {
	accounts := accountstore.NewInMemory()
	institutions := inststore.NewInMemory()
	return Stores{
		Students:     studentstore.NewInMemory(),
		Institutions: institutions,
		Accounts:     accounts,
	}, accounts, institutions
}

func TestRunSeedsDemoData(t *testing.T) {
	ctx := context.Background()
	stores, accounts, institutions := newStores()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	res, err := Run(ctx, stores, Options{BcryptCost: bcrypt.MinCost, Now: now, Wallet: "0x00000000000000000000000000000000000c4a1e"}, logger)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Created)

	inst, err := institutions.FindByGovtRegNo(ctx, DemoInstitutionReg)
	require.NoError(t, err)
	assert.Equal(t, instmodels.StatusApproved, inst.Status)
	assert.Equal(t, "0x00000000000000000000000000000000000c4a1e", inst.Wallet)

	officer, err := accounts.FindByEmail(ctx, DemoOfficerEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstitutionAdmin, officer.Role)
	assert.Equal(t, uuid.UUID(res.InstitutionID), officer.SubjectID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(officer.PasswordHash), []byte(DemoPassword)))

	student, err := accounts.FindByEmail(ctx, DemoStudentEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, student.Role)
	assert.Equal(t, uuid.UUID(res.StudentID), student.SubjectID)

	admin, err := accounts.FindByEmail(ctx, DemoGovAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGovAdmin, admin.Role)
	assert.Equal(t, uuid.UUID(admin.ID), admin.SubjectID)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	stores, _, _ := newStores()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := Run(ctx, stores, Options{BcryptCost: bcrypt.MinCost}, logger)
	require.NoError(t, err)
	second, err := Run(ctx, stores, Options{BcryptCost: bcrypt.MinCost}, logger)
	require.NoError(t, err)

	assert.Zero(t, second.Created)
	assert.Equal(t, first.StudentID, second.StudentID)
	assert.Equal(t, first.InstitutionID, second.InstitutionID)
}
