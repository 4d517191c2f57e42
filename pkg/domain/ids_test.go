package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credchain/pkg/domain-errors"
)

func TestParseStudentID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseStudentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseStudentID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseStudentID(u.String())
		require.NoError(t, err)
		assert.Equal(t, StudentID(u), id)
	})
}

func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE students;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Braced form", "{550e8400-e29b-41d4-a716-446655440000}", true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInstitutionID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLooksLikeUUID(t *testing.T) {
	assert.True(t, LooksLikeUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.True(t, LooksLikeUUID("550E8400-E29B-41D4-A716-446655440000"))
	assert.False(t, LooksLikeUUID("SEID123"))
	assert.False(t, LooksLikeUUID("550e8400e29b41d4a716446655440000"))
	assert.False(t, LooksLikeUUID("zz0e8400-e29b-41d4-a716-446655440000"))
}

func TestIdentityHasRole(t *testing.T) {
	officer := Identity{SubjectID: uuid.New(), Role: RoleInstitutionOfficer}

	assert.True(t, officer.HasRole(InstitutionRoles...))
	assert.False(t, officer.HasRole(RoleGovAdmin, RoleStudent))
	assert.False(t, Identity{}.HasRole(InstitutionRoles...))
}
