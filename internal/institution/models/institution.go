package models

import (
	"strings"
	"time"

	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

// Status is the lifecycle state of an institution.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusSuspended Status = "SUSPENDED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusSuspended:
		return true
	}
	return false
}

// CanTransitionTo reports whether s may move to next.
// PENDING -> APPROVED, APPROVED -> SUSPENDED and SUSPENDED -> APPROVED.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved
	case StatusApproved:
		return next == StatusSuspended
	case StatusSuspended:
		return next == StatusApproved
	}
	return false
}

// Institution is an organisation that issues certificates.
//
// Invariants:
//   - Name and GovtRegNo are non-empty
//   - GovtRegNo is unique across institutions
//   - Only an APPROVED institution may issue
//   - Wallet is the ledger address last authorised as issuer, or empty
type Institution struct {
	ID        domain.InstitutionID `json:"id"`
	Name      string               `json:"name"`
	GovtRegNo string               `json:"govtRegNo"`
	Status    Status               `json:"status"`
	Wallet    string               `json:"wallet,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func New(id domain.InstitutionID, name, govtRegNo string, now time.Time) (*Institution, error) {
	name = strings.TrimSpace(name)
	govtRegNo = strings.TrimSpace(govtRegNo)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution name cannot be empty")
	}
	if govtRegNo == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "government registration number cannot be empty")
	}
	return &Institution{
		ID:        id,
		Name:      name,
		GovtRegNo: govtRegNo,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (i *Institution) IsApproved() bool {
	return i.Status == StatusApproved
}

// CanTransitionTo returns an invariant violation when the move is not allowed.
func (i *Institution) CanTransitionTo(next Status) error {
	if !i.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation, "institution cannot move from "+string(i.Status)+" to "+string(next))
	}
	return nil
}

func (i *Institution) ApplyStatus(next Status, now time.Time) {
	i.Status = next
	i.UpdatedAt = now
}

// ApplyWallet records the issuer address. Revoking clears it when it matches.
func (i *Institution) ApplyWallet(address string, allowed bool, now time.Time) {
	switch {
	case allowed:
		i.Wallet = address
	case strings.EqualFold(i.Wallet, address):
		i.Wallet = ""
	}
	i.UpdatedAt = now
}
