// Package domainerrors defines the coded errors services return to transports.
//
// Stores speak in sentinel errors (see pkg/platform/sentinel); services
// translate those into a Code that the HTTP layer maps to a status and a
// stable wire identifier. Callers branch on codes, never on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeInvalidToken       Code = "invalid_token"
	CodeExpired            Code = "expired"
	CodeConflict           Code = "conflict"
	CodeChainUnavailable   Code = "chain_unavailable"
	CodeChainRejected      Code = "chain_rejected"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Error is a coded domain error. Msg is safe to show to API clients except
// for CodeInternal, whose message is only logged.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code. A target with an empty
// message matches on code alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap attaches a code and client-facing message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// CodeOf returns the code of the outermost domain error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in err's chain carries code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
