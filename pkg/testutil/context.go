package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"credchain/pkg/domain"
	"credchain/pkg/requestcontext"
)

// WithIdentity adds an authenticated identity to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithIdentity(req *http.Request, identity domain.Identity) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), identity))
}

// InstitutionIdentity builds an identity for an officer of institutionID.
func InstitutionIdentity(institutionID uuid.UUID, role domain.Role) domain.Identity {
	return domain.Identity{
		SubjectID: institutionID,
		Role:      role,
		UserID:    domain.AccountID(uuid.New()),
	}
}

// StudentIdentity builds an identity for the student studentID.
func StudentIdentity(studentID uuid.UUID) domain.Identity {
	return domain.Identity{
		SubjectID: studentID,
		Role:      domain.RoleStudent,
		UserID:    domain.AccountID(uuid.New()),
	}
}
