package ledger

// submitter.go relays client-signed transactions and waits for confirmation.
//
// Only the relay step is retried, and only on connection errors. Confirmation waits
// are never retried: relaying again after a transaction may already have landed
// risks the caller misreading a duplicate signature.

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sethvargo/go-retry"
)

// MaxRelayAttempts is the number of times a signed transaction is relayed before giving up.
const MaxRelayAttempts = 3

// RelayObserver is notified of each relay attempt (used for metrics).
type RelayObserver interface {
	RelayAttempt(attempt int, err error)
}

// Submitter relays signed transactions.
type Submitter struct {
	network    Network
	confirmer  *Confirmer
	logger     *slog.Logger
	retryDelay time.Duration
	// attemptTimeout bounds each relay call, zero means the caller's context alone applies
	attemptTimeout time.Duration
	observer       RelayObserver
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithRetryDelay sets the constant delay between relay attempts.
func WithRetryDelay(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithAttemptTimeout bounds each relay attempt. An attempt that runs out of time is treated
// as a connection error and retried while attempts remain.
func WithAttemptTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

// WithRelayObserver registers an observer for relay attempts.
func WithRelayObserver(o RelayObserver) SubmitterOption {
	return func(s *Submitter) { s.observer = o }
}

func NewSubmitter(network Network, confirmer *Confirmer, logger *slog.Logger, opts ...SubmitterOption) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Submitter{
		network:    network,
		confirmer:  confirmer,
		logger:     logger,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecodeSignedTransaction decodes base64 text into a ledger transaction and checks that every
// required signature is present and valid. No network call is made.
func DecodeSignedTransaction(signedTxBase64 string) ([]byte, *solana.Transaction, error) {
	text := strings.TrimSpace(signedTxBase64)
	if text == "" {
		return nil, nil, NewInvalidEncodingError("signed transaction is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, nil, WrapInvalidEncodingError(err, "signed transaction must be a valid base64 encoded string")
	}

	dec := bin.NewBinDecoder(raw)
	tx, err := solana.TransactionFromDecoder(dec)
	if err != nil {
		return nil, nil, WrapInvalidEncodingError(err, "signed transaction is not a valid ledger transaction")
	}
	if dec.HasRemaining() {
		return nil, nil, NewInvalidEncodingError(fmt.Sprintf("signed transaction has %d trailing bytes", dec.Remaining()))
	}

	if len(tx.Signatures) == 0 ||
		len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) ||
		len(tx.Signatures) > len(tx.Message.AccountKeys) {
		return nil, nil, NewValidationError("signedTransaction", "transaction does not carry every required signature")
	}
	for i, sig := range tx.Signatures {
		if sig == (solana.Signature{}) {
			return nil, nil, NewValidationError("signedTransaction",
				"transaction is missing the signature of "+tx.Message.AccountKeys[i].String())
		}
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, nil, &LedgerError{code: ErrCodeValidation, field: "signedTransaction", message: "transaction signature verification failed", wrapped: err}
	}

	return raw, tx, nil
}

// Submit relays a signed base64 transaction and waits for confirmation.
//
// The relay is attempted up to MaxRelayAttempts times on connection errors. Any other failure,
// or failure to confirm, is returned as a submit error and the transaction's final state must be
// treated as unknown.
func (s *Submitter) Submit(ctx context.Context, signedTxBase64 string) (solana.Signature, error) {
	raw, tx, err := DecodeSignedTransaction(signedTxBase64)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := s.relay(ctx, raw)
	if err != nil {
		return solana.Signature{}, WrapSubmitError(err, "failed to submit transaction")
	}

	// the network signature is the fee payer's signature
	if sig != tx.Signatures[0] {
		s.logger.Warn("relay returned an unexpected signature",
			slog.String("expected", tx.Signatures[0].String()),
			slog.String("got", sig.String()))
	}

	if err := s.confirmer.WaitForConfirmation(ctx, sig); err != nil {
		return sig, WrapSubmitError(err, "failed to confirm transaction "+sig.String())
	}

	return sig, nil
}

func (s *Submitter) relay(ctx context.Context, raw []byte) (solana.Signature, error) {
	var (
		sig     solana.Signature
		attempt int
	)

	backoff := retry.WithMaxRetries(MaxRelayAttempts-1, retry.NewConstant(s.retryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		sig, err = s.send(ctx, raw)
		if s.observer != nil {
			s.observer.RelayAttempt(attempt, err)
		}
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			s.logger.Debug("relay attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", MaxRelayAttempts),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

// send relays raw once, bounded by the attempt timeout.
func (s *Submitter) send(ctx context.Context, raw []byte) (solana.Signature, error) {
	if s.attemptTimeout <= 0 {
		return s.network.SendRawTransaction(ctx, raw)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	sig, err := s.network.SendRawTransaction(attemptCtx, raw)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !IsTransient(err) {
		return solana.Signature{}, WrapConnectionError(err, "sendTransaction timed out after "+s.attemptTimeout.String())
	}
	return sig, err
}
