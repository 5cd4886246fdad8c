package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

type recordingObserver struct {
	mu       sync.Mutex
	attempts []int
	failures int
}

func (o *recordingObserver) RelayAttempt(attempt int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, attempt)
	if err != nil {
		o.failures++
	}
}

func newTestSubmitter(network *mockNetwork, opts ...SubmitterOption) *Submitter {
	opts = append([]SubmitterOption{WithRetryDelay(time.Millisecond)}, opts...)
	return NewSubmitter(network, testConfirmer(network), nil, opts...)
}

func TestSubmit_RetriesTransientFailures(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, wantSig := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	network := &mockNetwork{
		sendErrs: []error{transientErr(), transientErr()},
		sendSig:  wantSig,
		statuses: []*SignatureStatus{confirmedStatus()},
	}
	observer := &recordingObserver{}
	submitter := newTestSubmitter(network, WithRelayObserver(observer))

	sig, err := submitter.Submit(context.Background(), signedTx)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if sig != wantSig {
		t.Errorf("Submit() = %s, want %s", sig, wantSig)
	}
	if network.sendCalls != 3 {
		t.Errorf("sendCalls = %d, want 3", network.sendCalls)
	}
	if len(observer.attempts) != 3 || observer.failures != 2 {
		t.Errorf("observer saw attempts %v with %d failures, want 3 attempts and 2 failures", observer.attempts, observer.failures)
	}
}

func TestSubmit_GivesUpAfterMaxAttempts(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, _ := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	network := &mockNetwork{
		sendErrs: []error{transientErr(), transientErr(), transientErr(), transientErr()},
	}
	submitter := newTestSubmitter(network)

	_, err := submitter.Submit(context.Background(), signedTx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !HasCode(err, ErrCodeSubmit) {
		t.Errorf("expected submit error, got %v", err)
	}
	if !errors.Is(err, errDropped) {
		t.Errorf("expected the last relay failure to be preserved, got %v", err)
	}
	if network.sendCalls != MaxRelayAttempts {
		t.Errorf("sendCalls = %d, want %d", network.sendCalls, MaxRelayAttempts)
	}
	if network.statusCalls != 0 {
		t.Errorf("confirmation must not be attempted after a failed relay")
	}
}

func TestSubmit_RejectionIsNotRetried(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, _ := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	rejection := WrapRejectedError(errors.New("Blockhash not found"), "sendTransaction failed")
	network := &mockNetwork{sendErrs: []error{rejection}}
	submitter := newTestSubmitter(network)

	_, err := submitter.Submit(context.Background(), signedTx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !HasCode(err, ErrCodeSubmit) || !HasCode(err, ErrCodeRejected) {
		t.Errorf("expected submit error wrapping the rejection, got %v", err)
	}
	if network.sendCalls != 1 {
		t.Errorf("sendCalls = %d, want 1", network.sendCalls)
	}
}

func TestSubmit_ConfirmationTimeout(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, wantSig := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	network := &mockNetwork{
		sendSig:  wantSig,
		statuses: []*SignatureStatus{{Slot: 10, ConfirmationStatus: "processed"}},
	}
	submitter := newTestSubmitter(network)

	sig, err := submitter.Submit(context.Background(), signedTx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Errorf("expected confirmation timeout, got %v", err)
	}
	if !HasCode(err, ErrCodeSubmit) {
		t.Errorf("expected submit error, got %v", err)
	}
	if sig != wantSig {
		t.Errorf("signature must be returned so the caller can re-query, got %s", sig)
	}
	if network.sendCalls != 1 {
		t.Errorf("confirmation failures must not trigger another relay, sendCalls = %d", network.sendCalls)
	}
}

func TestSubmit_AttemptTimeoutIsRetried(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, wantSig := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	// the first relay hangs until its attempt deadline, the second succeeds
	network := &mockNetwork{
		blockFirstSend: true,
		sendSig:        wantSig,
		statuses:       []*SignatureStatus{confirmedStatus()},
	}
	observer := &recordingObserver{}
	submitter := newTestSubmitter(network, WithAttemptTimeout(20*time.Millisecond), WithRelayObserver(observer))

	sig, err := submitter.Submit(context.Background(), signedTx)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if sig != wantSig {
		t.Errorf("Submit() = %s, want %s", sig, wantSig)
	}
	if network.sendCalls != 2 {
		t.Errorf("sendCalls = %d, want 2", network.sendCalls)
	}
	if observer.failures != 1 {
		t.Errorf("observer saw %d failures, want 1", observer.failures)
	}
}

func TestSubmit_CallerDeadlineIsNotRetried(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, _ := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	network := &mockNetwork{blockFirstSend: true}
	submitter := newTestSubmitter(network, WithAttemptTimeout(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := submitter.Submit(ctx, signedTx)
	if !HasCode(err, ErrCodeSubmit) {
		t.Fatalf("expected submit error, got %v", err)
	}
	if network.sendCalls != 1 {
		t.Errorf("sendCalls = %d, want 1", network.sendCalls)
	}
}

func TestSubmit_TransactionFailedOnChain(t *testing.T) {
	payer := testKey(t, 1)
	signedTx, wantSig := signedTransfer(t, payer, testKey(t, 2).PublicKey(), 1000)

	network := &mockNetwork{
		sendSig:  wantSig,
		statuses: []*SignatureStatus{{Slot: 10, ConfirmationStatus: "confirmed", Err: map[string]any{"InstructionError": []any{0, "InsufficientFunds"}}}},
	}
	submitter := newTestSubmitter(network)

	_, err := submitter.Submit(context.Background(), signedTx)
	if !HasCode(err, ErrCodeRejected) {
		t.Errorf("expected rejected error, got %v", err)
	}
}

func TestSubmit_InvalidInput(t *testing.T) {
	payer := testKey(t, 1).PublicKey()
	unsigned, err := EncodeUnsignedTransfer(payer, testKey(t, 2).PublicKey(), 1000, testBlockhash("H1"))
	if err != nil {
		t.Fatalf("EncodeUnsignedTransfer() error: %v", err)
	}
	signed, _ := signedTransfer(t, testKey(t, 1), testKey(t, 2).PublicKey(), 1000)
	tampered := []byte(signed)
	// flip a character inside the message body, after the signature
	if tampered[len(tampered)-10] == 'A' {
		tampered[len(tampered)-10] = 'B'
	} else {
		tampered[len(tampered)-10] = 'A'
	}

	signedRaw, err := base64.StdEncoding.DecodeString(signed)
	if err != nil {
		t.Fatalf("failed to decode signed transaction: %v", err)
	}
	trailing := base64.StdEncoding.EncodeToString(append(signedRaw, []byte("TRAILING-GARBAGE")...))

	tests := []struct {
		name     string
		input    string
		wantCode ErrorCode
	}{
		{name: "empty", input: "", wantCode: ErrCodeInvalidEncoding},
		{name: "not base64", input: "%%%not-base64%%%", wantCode: ErrCodeInvalidEncoding},
		{name: "base64 of garbage", input: "aGVsbG8=", wantCode: ErrCodeInvalidEncoding},
		{name: "unsigned", input: unsigned, wantCode: ErrCodeValidation},
		{name: "tampered message", input: string(tampered), wantCode: ErrCodeValidation},
		{name: "valid transaction with trailing bytes", input: trailing, wantCode: ErrCodeInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network := &mockNetwork{}
			submitter := newTestSubmitter(network)

			_, err := submitter.Submit(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !HasCode(err, tt.wantCode) {
				t.Errorf("expected %s error, got %v", tt.wantCode, err)
			}
			if network.sendCalls != 0 {
				t.Errorf("expected no network call, got %d", network.sendCalls)
			}
		})
	}
}

func TestDecodeSignedTransaction(t *testing.T) {
	payer := testKey(t, 3)
	signed, wantSig := signedTransfer(t, payer, testKey(t, 4).PublicKey(), 5)

	raw, tx, err := DecodeSignedTransaction(signed)
	if err != nil {
		t.Fatalf("DecodeSignedTransaction() error: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected raw bytes")
	}
	if tx.Signatures[0] != wantSig {
		t.Errorf("signature = %s, want %s", tx.Signatures[0], wantSig)
	}
	if !tx.Message.AccountKeys[0].Equals(payer.PublicKey()) {
		t.Errorf("fee payer = %s, want %s", tx.Message.AccountKeys[0], payer.PublicKey())
	}
	var zero solana.Signature
	if wantSig == zero {
		t.Error("expected a non-zero signature")
	}
}
