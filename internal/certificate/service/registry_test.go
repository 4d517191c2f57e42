package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"credchain/internal/certificate/models"
	"credchain/internal/certificate/service/mocks"
	certstore "credchain/internal/certificate/store/certificate"
	studentstore "credchain/internal/certificate/store/student"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/testutil"
)

func TestRegistryListForHolder(t *testing.T) {
	ctx := context.Background()
	certificates := certstore.NewInMemory()
	registry, err := NewRegistry(certificates, studentstore.NewInMemory())
	require.NoError(t, err)

	student := uuid.New()
	institution := uuid.New()
	require.NoError(t, certificates.Create(ctx, &models.Certificate{ID: "A", StudentID: domain.StudentID(student), InstitutionID: domain.InstitutionID(institution), IssuedAt: time.Now()}))
	require.NoError(t, certificates.Create(ctx, &models.Certificate{ID: "B", StudentID: domain.StudentID(uuid.New()), InstitutionID: domain.InstitutionID(institution), IssuedAt: time.Now()}))

	testutil.Given(t, "a student", func(t *testing.T) {
		certs, err := registry.ListForHolder(ctx, testutil.StudentIdentity(student))
		require.NoError(t, err)
		testutil.Then(t, "only their own certificates are listed", func(t *testing.T) {
			require.Len(t, certs, 1)
			assert.Equal(t, "A", certs[0].ID)
		})
	})

	testutil.Given(t, "institution staff", func(t *testing.T) {
		certs, err := registry.ListForHolder(ctx, testutil.InstitutionIdentity(institution, domain.RoleInstitutionOfficer))
		require.NoError(t, err)
		testutil.Then(t, "everything the institution issued is listed", func(t *testing.T) {
			assert.Len(t, certs, 2)
		})
	})

	testutil.Given(t, "a government admin", func(t *testing.T) {
		_, err := registry.ListForHolder(ctx, domain.Identity{SubjectID: uuid.New(), Role: domain.RoleGovAdmin})
		testutil.Then(t, "listing is forbidden", func(t *testing.T) {
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		})
	})
}

func TestRegistrySearchStudents(t *testing.T) {
	ctrl := gomock.NewController(t)
	students := mocks.NewMockStudentStore(ctrl)
	registry, err := NewRegistry(certstore.NewInMemory(), students)
	require.NoError(t, err)
	staff := testutil.InstitutionIdentity(uuid.New(), domain.RoleInstitutionAdmin)

	students.EXPECT().Search(gomock.Any(), "rao", 20).Return([]*models.Student{{SEID: "SEID123"}}, nil)
	found, err := registry.SearchStudents(context.Background(), staff, "rao")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	students.EXPECT().Search(gomock.Any(), "x", 20).Return(nil, errors.New("db down"))
	_, err = registry.SearchStudents(context.Background(), staff, "x")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = registry.SearchStudents(context.Background(), testutil.StudentIdentity(uuid.New()), "rao")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
