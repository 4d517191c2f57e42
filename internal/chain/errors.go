package chain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ledger failures.
type ErrorKind string

const (
	// KindUnavailable covers transport failures and timeouts. The outcome of a
	// state-changing call that failed this way is unknown.
	KindUnavailable ErrorKind = "unavailable"

	// KindRejected means the contract refused the call.
	KindRejected ErrorKind = "rejected"

	// KindNotFound means no anchor exists for the requested id.
	KindNotFound ErrorKind = "not_found"
)

// Rejection reasons reported by the contract.
const (
	ReasonDuplicateID        = "certificate id already anchored"
	ReasonIssuerUnauthorized = "caller is not an authorized issuer"
	ReasonNotOwner           = "caller is not the contract owner"
	ReasonInvalidArgument    = "invalid argument"
	ReasonReverted           = "transaction reverted"
)

var ErrCircuitOpen = errors.New("chain circuit open")

// Error wraps a ledger failure with its kind and the operation that failed.
type Error struct {
	Kind       ErrorKind
	Op         string
	Reason     string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("chain %s [%s]", e.Op, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Underlying: err, Retryable: true}
}

func Rejected(op, reason string, err error) *Error {
	return &Error{Kind: KindRejected, Op: op, Reason: reason, Underlying: err}
}

func NotFound(op, certificateID string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Reason: fmt.Sprintf("no anchor for %q", certificateID)}
}

// KindOf extracts the kind of a chain error.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

func IsUnavailable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindUnavailable
}

func IsRejected(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindRejected
}

func IsNotFound(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNotFound
}

// IsRetryable reports whether retrying the same call may succeed.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// ReasonOf returns the contract rejection reason, if any.
func ReasonOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}
