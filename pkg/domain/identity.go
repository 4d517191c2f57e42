package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleInstitutionAdmin   Role = "INSTITUTION_ADMIN"
	RoleInstitutionOfficer Role = "INSTITUTION_OFFICER"
	RoleStudent            Role = "STUDENT"
	RoleGovAdmin           Role = "GOV_ADMIN"
)

// InstitutionRoles may issue certificates on behalf of their institution.
var InstitutionRoles = []Role{RoleInstitutionAdmin, RoleInstitutionOfficer}

func (r Role) IsValid() bool {
	switch r {
	case RoleInstitutionAdmin, RoleInstitutionOfficer, RoleStudent, RoleGovAdmin:
		return true
	}
	return false
}

func (r Role) IsInstitution() bool {
	return r == RoleInstitutionAdmin || r == RoleInstitutionOfficer
}

// Identity is the authenticated principal behind a request.
// SubjectID is the institution id for institution roles, the student id for
// students and the account id for government admins.
type Identity struct {
	SubjectID uuid.UUID
	Role      Role
	UserID    AccountID
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	return slices.Contains(roles, i.Role)
}

func (i Identity) InstitutionID() InstitutionID {
	return InstitutionID(i.SubjectID)
}

func (i Identity) StudentID() StudentID {
	return StudentID(i.SubjectID)
}
