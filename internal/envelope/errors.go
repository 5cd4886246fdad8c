package envelope

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the envelope package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeMalformed is used when a required field is missing or an enum value is not recognised.
	ErrCodeMalformed ErrorCode = "malformed_envelope"

	// ErrCodeChecksumMismatch means payload.checksum is not the SHA-256 of the decoded payload data.
	ErrCodeChecksumMismatch ErrorCode = "checksum_mismatch"

	// ErrCodeExpired means meta.expiry is before the verification time.
	ErrCodeExpired ErrorCode = "expired"

	// ErrCodeInvalidSignature means a (signer, signature) pair did not verify. The error names the signer.
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"

	// ErrCodeTypePayloadMismatch means an unencrypted payload is not consistent with header.type.
	ErrCodeTypePayloadMismatch ErrorCode = "type_payload_mismatch"
)

// EnvelopeError represents a structured error from the envelope package
type EnvelopeError struct {
	// code is the envelope error code
	code ErrorCode

	// signer is the offending signer for invalid signature errors
	signer string

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *EnvelopeError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *EnvelopeError) Code() ErrorCode { return e.code }
func (e *EnvelopeError) Signer() string  { return e.signer }
func (e *EnvelopeError) Unwrap() error   { return e.wrapped }

// NewMalformedError creates an error for an envelope that is structurally invalid.
func NewMalformedError(msg string) error {
	return &EnvelopeError{code: ErrCodeMalformed, message: msg}
}

// WrapMalformedError wraps a parse failure as a malformed envelope error.
func WrapMalformedError(err error, msg string) error {
	return &EnvelopeError{code: ErrCodeMalformed, message: msg, wrapped: err}
}

// NewChecksumMismatchError creates a checksum verification error.
func NewChecksumMismatchError(msg string) error {
	return &EnvelopeError{code: ErrCodeChecksumMismatch, message: msg}
}

// WrapChecksumMismatchError is used when the payload data cannot be decoded for hashing.
func WrapChecksumMismatchError(err error, msg string) error {
	return &EnvelopeError{code: ErrCodeChecksumMismatch, message: msg, wrapped: err}
}

func NewExpiredError(msg string) error {
	return &EnvelopeError{code: ErrCodeExpired, message: msg}
}

// WrapInvalidSignatureError creates a signature verification error naming signer.
// err may be nil when the signature simply does not match.
func WrapInvalidSignatureError(err error, signer, msg string) error {
	return &EnvelopeError{code: ErrCodeInvalidSignature, signer: signer, message: msg, wrapped: err}
}

// WrapTypePayloadMismatchError wraps the reason a payload does not match its declared type.
func WrapTypePayloadMismatchError(err error, msg string) error {
	return &EnvelopeError{code: ErrCodeTypePayloadMismatch, message: msg, wrapped: err}
}

// CodeOf returns the code of the first EnvelopeError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ee *EnvelopeError
	if errors.As(err, &ee) {
		return ee.code, true
	}
	return "", false
}
