package api

// errors.go defines the error codes returned by the relay gateway

import "fmt"

// APIError is an error raised by the gateway itself (request parsing, limits, replays).
// Errors from the ledger and envelope packages are mapped separately in MapErrorToResponse.
type APIError struct {
	// code is the gateway error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *APIError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *APIError) Code() ErrorCode { return e.code }
func (e *APIError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in errors returned by the gateway.
//
//   - 7000-7999 technical errors: the request could not be processed because of the supplied data or an upstream failure.
//   - 8000-8999 functional errors: the request was understood but refused.
type ErrorCode int

const (
	// ErrCodeBadSignature is used when an envelope signature does not verify.
	ErrCodeBadSignature ErrorCode = 7001

	// ErrCodeInvalidEncoding is used when a signed transaction is not base64 or not a ledger transaction.
	ErrCodeInvalidEncoding ErrorCode = 7002

	// ErrCodeBadChecksum is used when an envelope payload does not match its checksum.
	ErrCodeBadChecksum ErrorCode = 7003

	// ErrCodeInvalidEnvelope is used when an envelope is missing fields or has out of range values.
	ErrCodeInvalidEnvelope ErrorCode = 7004

	// ErrCodeInternalError is used for unexpected failures.
	ErrCodeInternalError ErrorCode = 7005

	// ErrCodeMalformedRequest is used when the request body cannot be parsed.
	ErrCodeMalformedRequest ErrorCode = 7006

	// ErrCodeNotFound is used when a requested record does not exist.
	ErrCodeNotFound ErrorCode = 7007

	// ErrCodeRateLimitExceeded is used when the client exceeds the request rate limit.
	ErrCodeRateLimitExceeded ErrorCode = 7009

	// ErrCodeRequestTooLarge is used when the request body exceeds MAX_REQUEST_SIZE.
	ErrCodeRequestTooLarge ErrorCode = 7010

	// ErrCodeUpstreamUnavailable is used when the ledger network could not be reached.
	ErrCodeUpstreamUnavailable ErrorCode = 7011

	// ErrCodeValidation is used when a request field is well formed but out of range (bad address, amount etc).
	ErrCodeValidation ErrorCode = 8001

	// ErrCodeRejected is used when the ledger network refused the request.
	ErrCodeRejected ErrorCode = 8002

	// ErrCodeExpired is used when an envelope has passed its expiry time.
	ErrCodeExpired ErrorCode = 8003

	// ErrCodeDuplicateEnvelope is used when an envelope id has already been accepted.
	ErrCodeDuplicateEnvelope ErrorCode = 8004

	// ErrCodeTypeMismatch is used when an envelope payload does not match its declared type.
	ErrCodeTypeMismatch ErrorCode = 8005

	// ErrCodeSubmitFailed is used when a transaction was relayed but could not be confirmed.
	// The transaction may still land: clients must query its status before retrying.
	ErrCodeSubmitFailed ErrorCode = 8006

	// ErrCodeBuildFailed is used when an unsigned transaction could not be built.
	ErrCodeBuildFailed ErrorCode = 8007
)

// NewMalformedRequestError creates a malformed request error.
// Use this when the request body is not valid JSON or is missing required fields.
func NewMalformedRequestError(msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(msg string) error {
	return &APIError{code: ErrCodeNotFound, message: msg}
}

// NewDuplicateEnvelopeError creates a duplicate envelope error.
// Use this when an envelope id has already been recorded in the replay window.
func NewDuplicateEnvelopeError(msg string) error {
	return &APIError{code: ErrCodeDuplicateEnvelope, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for store failures and other errors that should not normally occur.
func WrapInternalError(err error, msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &APIError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
func NewRequestTooLargeError(msg string) error {
	return &APIError{code: ErrCodeRequestTooLarge, message: msg}
}
