// Package models holds the certificate registry's domain types.
package models

import (
	"regexp"
	"strings"
	"time"

	"credchain/internal/canonical"
	"credchain/internal/chain"
	"credchain/internal/fingerprint"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

// Type is the kind of academic document a certificate anchors.
type Type string

const (
	TypeDegree     Type = "DEGREE"
	TypeDiploma    Type = "DIPLOMA"
	TypeMarksheet  Type = "MARKSHEET"
	TypeTranscript Type = "TRANSCRIPT"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeDegree, TypeDiploma, TypeMarksheet, TypeTranscript:
		return true
	}
	return false
}

// ParseType accepts a type in any case. An empty value means DEGREE.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeDegree, nil
	}
	t := Type(strings.ToUpper(s))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "type must be one of DEGREE, DIPLOMA, MARKSHEET, TRANSCRIPT")
	}
	return t, nil
}

const MaxCertificateIDLength = 128

var certificateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateCertificateID checks a caller supplied certificate id.
func ValidateCertificateID(id string) error {
	if !certificateIDPattern.MatchString(id) {
		return dErrors.New(dErrors.CodeValidation, "certificateId must be 1-128 characters of letters, digits, '-' or '_'")
	}
	return nil
}

// Certificate is an issued, anchored certificate. Rows are written once and
// never updated.
type Certificate struct {
	ID             string                  `json:"certificateId"`
	StudentID      domain.StudentID        `json:"studentId"`
	InstitutionID  domain.InstitutionID    `json:"institutionId"`
	Type           Type                    `json:"type"`
	Metadata       canonical.Value         `json:"metadata"`
	Fingerprint    fingerprint.Fingerprint `json:"fingerprint"`
	ChainReference string                  `json:"chainReference"`
	ChainNetwork   string                  `json:"chainNetwork"`
	DocumentSize   int64                   `json:"documentSize"`
	IssuedAt       time.Time               `json:"issuedAt"`
}

// IssuedTo reports whether the certificate belongs to the student.
func (c *Certificate) IssuedTo(id domain.StudentID) bool {
	return c.StudentID == id
}

// IssuedBy reports whether the institution issued the certificate.
func (c *Certificate) IssuedBy(id domain.InstitutionID) bool {
	return c.InstitutionID == id
}

// Student is a registered learner that certificates are issued to.
type Student struct {
	ID          domain.StudentID `json:"id"`
	SEID        string           `json:"seid"`
	Name        string           `json:"name"`
	Email       string           `json:"email,omitempty"`
	DateOfBirth time.Time        `json:"dateOfBirth,omitzero"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// VerificationResult is the outcome of comparing a stored certificate with
// its ledger anchor. Anchor is nil when the ledger has no record.
type VerificationResult struct {
	Certificate    *Certificate
	Verified       bool
	ChainReference string
	ChainNetwork   string
	Anchor         *chain.Anchor
}
