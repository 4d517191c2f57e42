package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"credchain/pkg/domain"
)

// Account is a credential holder. SubjectID is the institution the account
// acts for, the student it belongs to, or the account itself for government
// admins.
type Account struct {
	ID           domain.AccountID
	Email        string
	Name         string
	PasswordHash string
	Role         domain.Role
	SubjectID    uuid.UUID
	CreatedAt    time.Time
}

// Identity is the principal encoded into tokens minted for the account.
func (a *Account) Identity() domain.Identity {
	return domain.Identity{SubjectID: a.SubjectID, Role: a.Role, UserID: a.ID}
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Audience selects which login endpoint was used.
type Audience string

const (
	AudienceInstitution Audience = "institution"
	AudienceStudent     Audience = "student"
)

func (a Audience) IsValid() bool {
	return a == AudienceInstitution || a == AudienceStudent
}

// Admits reports whether an account with role may log in through a.
// Government admins use the institution (staff) endpoint.
func (a Audience) Admits(role domain.Role) bool {
	switch a {
	case AudienceInstitution:
		return role.IsInstitution() || role == domain.RoleGovAdmin
	case AudienceStudent:
		return role == domain.RoleStudent
	}
	return false
}

// RefreshTokenRecord is the persisted half of a session pair. A refresh
// token is only honoured while its record exists.
type RefreshTokenRecord struct {
	ID        uuid.UUID
	Token     string
	AccountID domain.AccountID
	SubjectID uuid.UUID
	Role      domain.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AccessGrant is returned by a successful refresh.
type AccessGrant struct {
	AccessToken string
	ExpiresIn   time.Duration
}
