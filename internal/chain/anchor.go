// Package chain defines the ledger-facing contract for anchoring certificate
// fingerprints and the error taxonomy shared by its backends.
package chain

import (
	"context"
	"time"

	"credchain/internal/fingerprint"
)

// AnchorClient talks to the anchoring contract. State-changing calls return
// only after the transaction is included in a block.
type AnchorClient interface {
	// Issue records fingerprint under certificateID. The contract rejects
	// duplicate ids and callers that are not authorized issuers.
	Issue(ctx context.Context, certificateID string, fp fingerprint.Fingerprint) (*Receipt, error)
	// Read returns the anchor recorded for certificateID, or a NotFound error.
	Read(ctx context.Context, certificateID string) (*Anchor, error)
	// SetIssuerAuthorization grants or revokes issuing rights for address.
	// Only the contract owner may call it.
	SetIssuerAuthorization(ctx context.Context, address string, allowed bool) (*Receipt, error)
	// Network names the ledger the client is bound to.
	Network() string
}

// Receipt identifies an included ledger transaction.
type Receipt struct {
	Reference   string
	BlockNumber uint64
}

// Anchor is the on-ledger record for a certificate.
type Anchor struct {
	CertificateID string
	Fingerprint   fingerprint.Fingerprint
	Issuer        string
	IssuedAt      time.Time
}
