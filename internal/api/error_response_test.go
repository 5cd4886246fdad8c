package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/information-sharing-networks/zypp-relay/internal/envelope"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
)

// sanity check that the error codes are in the correct range
func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		errCode  ErrorCode
		wantCode int
	}{
		{"bad_signature", ErrCodeBadSignature, 7001},
		{"bad_checksum", ErrCodeBadChecksum, 7003},
		{"invalid_envelope", ErrCodeInvalidEnvelope, 7004},
		{"internal_error", ErrCodeInternalError, 7005},
		{"malformed_request", ErrCodeMalformedRequest, 7006},
		{"rate_limit", ErrCodeRateLimitExceeded, 7009},
		{"too_large", ErrCodeRequestTooLarge, 7010},
		{"validation", ErrCodeValidation, 8001},
		{"duplicate_envelope", ErrCodeDuplicateEnvelope, 8004},
	}
	for _, tt := range tests {
		if int(tt.errCode) != tt.wantCode {
			t.Errorf("%s: got %d, want %d", tt.name, tt.errCode, tt.wantCode)
		}
	}
}

func TestMapErrorToResponse(t *testing.T) {
	cause := errors.New("connection reset by peer")

	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCode     ErrorCode
		wantProperty string
	}{
		{
			name:       "malformed request",
			err:        NewMalformedRequestError("invalid JSON"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeMalformedRequest,
		},
		{
			name:       "duplicate envelope",
			err:        NewDuplicateEnvelopeError("envelope already accepted"),
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeDuplicateEnvelope,
		},
		{
			name:         "ledger validation keeps the field",
			err:          ledger.NewValidationError("amount", "amount must be greater than 0"),
			wantStatus:   http.StatusBadRequest,
			wantCode:     ErrCodeValidation,
			wantProperty: "amount",
		},
		{
			name:       "invalid encoding",
			err:        ledger.NewInvalidEncodingError("signed transaction is empty"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidEncoding,
		},
		{
			name:       "connection error",
			err:        ledger.WrapConnectionError(cause, "getBalance failed"),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeUpstreamUnavailable,
		},
		{
			name:       "build error caused by connection error",
			err:        ledger.WrapBuildError(ledger.WrapConnectionError(cause, "rpc failed"), "failed to fetch recent blockhash"),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeUpstreamUnavailable,
		},
		{
			name:       "submit error caused by rejection",
			err:        ledger.WrapSubmitError(ledger.WrapRejectedError(cause, "blockhash not found"), "failed to submit transaction"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrCodeRejected,
		},
		{
			name:       "submit error after retries",
			err:        ledger.WrapSubmitError(ledger.WrapConnectionError(cause, "rpc failed"), "failed to submit transaction"),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeSubmitFailed,
		},
		{
			name: "faucet confirmation timeout",
			err: ledger.WrapSubmitError(
				ledger.WrapConnectionError(ledger.ErrConfirmationTimeout, "confirmation wait expired"),
				"failed to confirm faucet credit"),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeSubmitFailed,
		},
		{
			name:       "bad checksum",
			err:        envelope.NewChecksumMismatchError("payload checksum does not match"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadChecksum,
		},
		{
			name:       "expired envelope",
			err:        envelope.NewExpiredError("envelope expired"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrCodeExpired,
		},
		{
			name:         "invalid signature names the signatures property",
			err:          envelope.WrapInvalidSignatureError(cause, "signer1", "signature does not verify"),
			wantStatus:   http.StatusBadRequest,
			wantCode:     ErrCodeBadSignature,
			wantProperty: "signatures",
		},
		{
			name:       "unmapped error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/mobile/transaction/submit", nil)
			resp := MapErrorToResponse(tt.err, r)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if len(resp.Errors) != 1 {
				t.Fatalf("expected 1 detailed error, got %d", len(resp.Errors))
			}
			if resp.Errors[0].ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %d, want %d", resp.Errors[0].ErrorCode, tt.wantCode)
			}
			if resp.Errors[0].Property != tt.wantProperty {
				t.Errorf("Property = %q, want %q", resp.Errors[0].Property, tt.wantProperty)
			}
			if resp.HTTPMethod != http.MethodPost {
				t.Errorf("HTTPMethod = %q", resp.HTTPMethod)
			}
		})
	}
}

func TestMapErrorToResponse_InternalErrorsAreSanitized(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := MapErrorToResponse(WrapInternalError(errors.New("dial tcp 10.0.0.5:5432"), "store failed"), r)

	if resp.Errors[0].ErrorCodeMessage != "An internal error occurred" {
		t.Errorf("internal error message leaked: %q", resp.Errors[0].ErrorCodeMessage)
	}
}

func TestRespondWithErrorResponse(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/mobile/balance/x", nil)
	w := httptest.NewRecorder()

	RespondWithErrorResponse(w, r, ledger.NewValidationError("publicKey", "invalid address"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.StatusCodeText != http.StatusText(http.StatusBadRequest) {
		t.Errorf("StatusCodeText = %q", body.StatusCodeText)
	}
	if body.Errors[0].ErrorCodeMessage == "" {
		t.Error("expected an error message")
	}
}
