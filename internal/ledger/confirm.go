package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrConfirmationTimeout is returned when a signature is not confirmed within the confirmation timeout.
	ErrConfirmationTimeout = errors.New("transaction was not confirmed in time")
)

// Confirmer waits for signatures to reach the configured commitment level.
type Confirmer struct {
	network      Network
	logger       *slog.Logger
	timeout      time.Duration
	pollInterval time.Duration
}

// NewConfirmer creates a Confirmer that polls every pollInterval for at most timeout.
func NewConfirmer(network Network, logger *slog.Logger, timeout, pollInterval time.Duration) *Confirmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Confirmer{
		network:      network,
		logger:       logger,
		timeout:      timeout,
		pollInterval: pollInterval,
	}
}

// WaitForConfirmation polls the signature status until it is confirmed, the transaction fails,
// or the timeout expires. It is never retried by the caller: a timeout means the outcome is unknown.
//
// A timeout is a connection error wrapping ErrConfirmationTimeout.
//
// Transient errors while polling are tolerated until the timeout.
func (c *Confirmer) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		status, err := c.network.SignatureStatus(ctx, sig)
		switch {
		case err != nil && !IsTransient(err):
			return err
		case err != nil:
			lastErr = err
			c.logger.Debug("signature status poll failed",
				slog.String("signature", sig.String()),
				slog.String("error", err.Error()))
		case status != nil && status.Err != nil:
			return WrapRejectedError(fmt.Errorf("%v", status.Err), "transaction failed")
		case status != nil && status.Confirmed():
			return nil
		}

		select {
		case <-ctx.Done():
			cause := ErrConfirmationTimeout
			if lastErr != nil {
				cause = fmt.Errorf("%w: %w", ErrConfirmationTimeout, lastErr)
			}
			return WrapConnectionError(cause, "confirmation wait for "+sig.String()+" expired")
		case <-ticker.C:
		}
	}
}
