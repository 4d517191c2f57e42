package models

import (
	"time"

	"credchain/pkg/domain"
)

// VerificationToken is a shareable bearer handle that lets a third party
// verify one certificate without signing in.
type VerificationToken struct {
	Token         string           `json:"token"`
	CertificateID string           `json:"certificateId"`
	CreatedBy     domain.AccountID `json:"createdBy"`
	CreatedAt     time.Time        `json:"createdAt"`
	ExpiresAt     time.Time        `json:"expiresAt"`
}

// IsExpired reports whether now is at or past the expiry.
func (t *VerificationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
