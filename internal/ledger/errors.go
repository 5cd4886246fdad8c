package ledger

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the ledger package.
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeValidation is used for malformed or out of range input detected before any network call.
	ErrCodeValidation ErrorCode = "validation"

	// ErrCodeInvalidEncoding is used when a signed transaction is not valid base64 or is not a ledger transaction.
	ErrCodeInvalidEncoding ErrorCode = "invalid_encoding"

	// ErrCodeConnection indicates a transient network/RPC failure (timeout, dropped connection etc).
	ErrCodeConnection ErrorCode = "connection"

	// ErrCodeRejected indicates the network processed the request and refused it
	// (insufficient funds, blockhash not found, failed preflight...).
	ErrCodeRejected ErrorCode = "rejected"

	// ErrCodeBuild wraps any failure while building an unsigned transaction.
	ErrCodeBuild ErrorCode = "build"

	// ErrCodeSubmit wraps any failure while relaying or confirming a signed transaction.
	ErrCodeSubmit ErrorCode = "submit"

	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "internal"
)

// LedgerError represents a structured error from the ledger package
type LedgerError struct {
	// code is the ledger error code
	code ErrorCode

	// field names the offending input for validation errors (e.g. "from", "amount")
	field string

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *LedgerError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *LedgerError) Code() ErrorCode { return e.code }
func (e *LedgerError) Field() string   { return e.field }
func (e *LedgerError) Unwrap() error   { return e.wrapped }

// NewValidationError creates a validation error for the named input field.
//
// Validation errors are always raised before any network call and are never retried.
func NewValidationError(field, msg string) error {
	return &LedgerError{code: ErrCodeValidation, field: field, message: msg}
}

// NewInvalidEncodingError creates an error for transaction text that cannot be decoded.
func NewInvalidEncodingError(msg string) error {
	return &LedgerError{code: ErrCodeInvalidEncoding, message: msg}
}

// WrapInvalidEncodingError wraps a decode failure as an invalid encoding error.
func WrapInvalidEncodingError(err error, msg string) error {
	return &LedgerError{code: ErrCodeInvalidEncoding, message: msg, wrapped: err}
}

// WrapConnectionError wraps a transport failure as a connection error.
//
// The submit path retries connection errors, nothing else does.
func WrapConnectionError(err error, msg string) error {
	return &LedgerError{code: ErrCodeConnection, message: msg, wrapped: err}
}

// WrapRejectedError wraps a network-side refusal. The cause is preserved verbatim.
func WrapRejectedError(err error, msg string) error {
	return &LedgerError{code: ErrCodeRejected, message: msg, wrapped: err}
}

// WrapBuildError wraps any failure during transaction construction.
func WrapBuildError(err error, msg string) error {
	return &LedgerError{code: ErrCodeBuild, message: msg, wrapped: err}
}

// NewSubmitError creates a submit error without an underlying cause.
func NewSubmitError(msg string) error {
	return &LedgerError{code: ErrCodeSubmit, message: msg}
}

// WrapSubmitError wraps a relay or confirmation failure.
//
// Callers must treat the final state of the transaction as unknown and
// re-query by signature before retrying the whole flow.
func WrapSubmitError(err error, msg string) error {
	return &LedgerError{code: ErrCodeSubmit, message: msg, wrapped: err}
}

// WrapInternalError wraps an unexpected failure.
func WrapInternalError(err error, msg string) error {
	return &LedgerError{code: ErrCodeInternal, message: msg, wrapped: err}
}

// HasCode reports whether any LedgerError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var le *LedgerError
		if !errors.As(err, &le) {
			return false
		}
		if le.code == code {
			return true
		}
		err = le.wrapped
	}
	return false
}

// IsTransient reports whether err is a connection failure that may succeed on retry.
func IsTransient(err error) bool {
	return HasCode(err, ErrCodeConnection)
}
