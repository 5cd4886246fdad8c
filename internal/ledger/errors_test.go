package ledger

import (
	"errors"
	"fmt"
	"testing"
)

func asLedgerError(err error, target **LedgerError) bool {
	return errors.As(err, target)
}

func TestHasCode(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	conn := WrapConnectionError(cause, "getBalance failed")

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{name: "direct", err: conn, code: ErrCodeConnection, want: true},
		{name: "nested in submit error", err: WrapSubmitError(conn, "failed to submit transaction"), code: ErrCodeConnection, want: true},
		{name: "outer code", err: WrapSubmitError(conn, "failed to submit transaction"), code: ErrCodeSubmit, want: true},
		{name: "wrapped with fmt", err: fmt.Errorf("relay: %w", conn), code: ErrCodeConnection, want: true},
		{name: "different code", err: conn, code: ErrCodeRejected, want: false},
		{name: "plain error", err: cause, code: ErrCodeConnection, want: false},
		{name: "nil", err: nil, code: ErrCodeConnection, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLedgerError_PreservesCause(t *testing.T) {
	cause := errors.New("insufficient funds for rent")
	err := WrapBuildError(WrapRejectedError(cause, "simulation failed"), "failed to create transaction")

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be reachable through errors.Is")
	}
	want := "failed to create transaction: simulation failed: insufficient funds for rent"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if IsTransient(err) {
		t.Errorf("rejected error must not be transient")
	}
}
