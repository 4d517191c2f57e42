// Package domain holds identifier and identity types shared across services.
//
// IDs are distinct named types over uuid.UUID so a StudentID can never be
// passed where an InstitutionID is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "credchain/pkg/domain-errors"
)

type (
	StudentID     uuid.UUID
	InstitutionID uuid.UUID
	AccountID     uuid.UUID
)

func (id StudentID) String() string     { return uuid.UUID(id).String() }
func (id InstitutionID) String() string { return uuid.UUID(id).String() }
func (id AccountID) String() string     { return uuid.UUID(id).String() }

func (id StudentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id StudentID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id InstitutionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AccountID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *StudentID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "student id")
	*id = StudentID(u)
	return err
}

func (id *InstitutionID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "institution id")
	*id = InstitutionID(u)
	return err
}

func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "account id")
	*id = AccountID(u)
	return err
}

func ParseStudentID(s string) (StudentID, error) {
	u, err := parseUUID(s, "student id")
	return StudentID(u), err
}

func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s, "institution id")
	return InstitutionID(u), err
}

func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	return AccountID(u), err
}

// LooksLikeUUID reports whether s has the 36 character hyphenated shape of a
// UUID. It does not validate the layout; use the Parse functions for that.
func LooksLikeUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for _, r := range s {
		switch {
		case r == '-':
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	if len(s) != 36 {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" must not be nil")
	}
	return u, nil
}
