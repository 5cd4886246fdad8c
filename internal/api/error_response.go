package api

// error_response.go maps gateway, ledger and envelope errors to the error response returned to clients.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/zypp-relay/internal/envelope"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
)

// ErrorResponse is the body of every non-2xx gateway response
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// The request id, quote this when reporting problems
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError describes one cause of a failed request
type DetailedError struct {
	// error code: 7000-7999 for technical errors, 8000-8999 for functional errors
	ErrorCode ErrorCode `json:"errorCode"`

	// Property is the request field that failed validation, if known
	Property         string `json:"property,omitempty"`
	ErrorCodeText    string `json:"errorCodeText"`
	ErrorCodeMessage string `json:"errorCodeMessage"`
}

// errorMapping is the status, code and sanitized text for one error kind
type errorMapping struct {
	status int
	code   ErrorCode
	text   string
}

var internalErrorMapping = errorMapping{http.StatusInternalServerError, ErrCodeInternalError, "Internal Error"}

// MapErrorToResponse maps api.APIError, ledger.LedgerError, envelope.EnvelopeError or generic errors to an
// ErrorResponse.
//
// The error code text is sanitized for the response. The error message itself is included in the
// detailed error, except for internal errors where it is only logged.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var (
		m        errorMapping
		property string
		message  = err.Error()
	)

	var apiErr *APIError
	var ledgerErr *ledger.LedgerError
	var envErr *envelope.EnvelopeError

	switch {
	case errors.As(err, &apiErr):
		m = mappingFromAPI(apiErr)
	case errors.As(err, &envErr):
		m = mappingFromEnvelope(envErr)
		if envErr.Signer() != "" {
			property = "signatures"
		}
	case errors.As(err, &ledgerErr):
		m = mappingFromLedger(ledgerErr)
		property = ledgerErr.Field()
	default:
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
			slog.String("error_type", fmt.Sprintf("%T", err)),
			slog.String("error", err.Error()),
			slog.String("request_id", requestID),
		)
		m = internalErrorMapping
	}

	if m.code == ErrCodeInternalError {
		message = "An internal error occurred"
		property = ""
	}

	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   m.status,
		StatusCodeText:               http.StatusText(m.status),
		StatusCodeMessage:            m.text,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        m.code,
				Property:         property,
				ErrorCodeText:    m.text,
				ErrorCodeMessage: message,
			},
		},
	}
}

func mappingFromAPI(err *APIError) errorMapping {
	switch err.Code() {
	case ErrCodeMalformedRequest:
		return errorMapping{http.StatusBadRequest, err.Code(), "Malformed request"}
	case ErrCodeNotFound:
		return errorMapping{http.StatusNotFound, err.Code(), "Not found"}
	case ErrCodeDuplicateEnvelope:
		return errorMapping{http.StatusConflict, err.Code(), "Duplicate envelope"}
	case ErrCodeRateLimitExceeded:
		return errorMapping{http.StatusTooManyRequests, err.Code(), "Rate limit exceeded"}
	case ErrCodeRequestTooLarge:
		return errorMapping{http.StatusRequestEntityTooLarge, err.Code(), "Request too large"}
	default:
		return internalErrorMapping
	}
}

// mappingFromLedger maps ledger errors. Build and submit errors are classified by their cause first
// so that, for example, an unreachable network is reported as such rather than as a generic failure.
func mappingFromLedger(err *ledger.LedgerError) errorMapping {
	switch err.Code() {
	case ledger.ErrCodeValidation:
		return errorMapping{http.StatusBadRequest, ErrCodeValidation, "Validation failed"}
	case ledger.ErrCodeInvalidEncoding:
		return errorMapping{http.StatusBadRequest, ErrCodeInvalidEncoding, "Invalid transaction encoding"}
	case ledger.ErrCodeConnection:
		return errorMapping{http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Ledger network unavailable"}
	case ledger.ErrCodeRejected:
		return errorMapping{http.StatusUnprocessableEntity, ErrCodeRejected, "Rejected by the ledger network"}
	case ledger.ErrCodeBuild:
		if ledger.IsTransient(err.Unwrap()) {
			return errorMapping{http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Ledger network unavailable"}
		}
		return errorMapping{http.StatusBadGateway, ErrCodeBuildFailed, "Transaction build failed"}
	case ledger.ErrCodeSubmit:
		if ledger.HasCode(err.Unwrap(), ledger.ErrCodeRejected) {
			return errorMapping{http.StatusUnprocessableEntity, ErrCodeRejected, "Rejected by the ledger network"}
		}
		return errorMapping{http.StatusBadGateway, ErrCodeSubmitFailed, "Transaction submission failed"}
	default:
		return internalErrorMapping
	}
}

func mappingFromEnvelope(err *envelope.EnvelopeError) errorMapping {
	switch err.Code() {
	case envelope.ErrCodeMalformed:
		return errorMapping{http.StatusBadRequest, ErrCodeInvalidEnvelope, "Invalid envelope"}
	case envelope.ErrCodeChecksumMismatch:
		return errorMapping{http.StatusBadRequest, ErrCodeBadChecksum, "Bad checksum"}
	case envelope.ErrCodeInvalidSignature:
		return errorMapping{http.StatusBadRequest, ErrCodeBadSignature, "Bad signature"}
	case envelope.ErrCodeExpired:
		return errorMapping{http.StatusUnprocessableEntity, ErrCodeExpired, "Envelope expired"}
	case envelope.ErrCodeTypePayloadMismatch:
		return errorMapping{http.StatusUnprocessableEntity, ErrCodeTypeMismatch, "Payload does not match envelope type"}
	default:
		return internalErrorMapping
	}
}
