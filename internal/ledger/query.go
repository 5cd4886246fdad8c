package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// NetworkStatus describes the network endpoint a QueryClient talks to.
type NetworkStatus struct {
	Endpoint    string
	Version     string
	CurrentSlot uint64
}

// TransactionStatus is the result of re-querying a relayed transaction by signature.
type TransactionStatus struct {
	Signature string

	// Found is false when the network has no record of the signature
	Found              bool
	Slot               uint64
	ConfirmationStatus string

	// Err is the network's description of a failed transaction, empty on success
	Err string
}

// QueryClient answers read-only questions about accounts and the network,
// and requests faucet credit on non-production networks.
type QueryClient struct {
	network       Network
	confirmer     *Confirmer
	logger        *slog.Logger
	faucetEnabled bool
}

// NewQueryClient creates a QueryClient. faucetEnabled should be false for production networks.
func NewQueryClient(network Network, confirmer *Confirmer, logger *slog.Logger, faucetEnabled bool) *QueryClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryClient{
		network:       network,
		confirmer:     confirmer,
		logger:        logger,
		faucetEnabled: faucetEnabled,
	}
}

// GetBalance returns the confirmed balance of account in display units.
// Accounts unknown to the network have a balance of zero.
func (q *QueryClient) GetBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	pk, err := ParseAddress("account", account)
	if err != nil {
		return decimal.Zero, err
	}

	lamports, err := q.network.Balance(ctx, pk)
	if err != nil {
		return decimal.Zero, err
	}
	return LamportsToDisplay(lamports), nil
}

// RequestFaucetCredit asks the network faucet to credit amount display units to account and waits
// for confirmation.
//
// The amount must be in (0, MaxFaucetCredit]. Invalid input and networks without a faucet are
// rejected before any network call. A confirmation failure is a submit error: the credit may
// still land.
func (q *QueryClient) RequestFaucetCredit(ctx context.Context, account string, amount decimal.Decimal) (solana.Signature, error) {
	pk, err := ParseAddress("account", account)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := ValidateFaucetAmount(amount); err != nil {
		return solana.Signature{}, err
	}
	if !q.faucetEnabled {
		return solana.Signature{}, NewValidationError("network", "faucet credit is not available on this network")
	}

	lamports, err := DisplayToLamports("amount", amount)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := q.network.RequestAirdrop(ctx, pk, lamports)
	if err != nil {
		return solana.Signature{}, err
	}

	q.logger.Debug("faucet credit requested",
		slog.String("account", account),
		slog.String("amount", amount.String()),
		slog.String("signature", sig.String()))

	if err := q.confirmer.WaitForConfirmation(ctx, sig); err != nil {
		return sig, WrapSubmitError(err, "failed to confirm faucet credit "+sig.String())
	}
	return sig, nil
}

// ValidateFaucetAmount checks amount is within (0, MaxFaucetCredit] display units.
func ValidateFaucetAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxFaucetCredit) {
		return NewValidationError("amount",
			fmt.Sprintf("amount must be greater than 0 and at most %s %s", MaxFaucetCredit, DisplayUnit))
	}
	if _, err := DisplayToLamports("amount", amount); err != nil {
		return err
	}
	return nil
}

// GetNetworkStatus reports the endpoint, node version and current slot.
// Any failure is returned as a connection error.
func (q *QueryClient) GetNetworkStatus(ctx context.Context) (*NetworkStatus, error) {
	version, err := q.network.Version(ctx)
	if err != nil {
		return nil, asConnectionError(err, "connection check failed")
	}
	slot, err := q.network.Slot(ctx)
	if err != nil {
		return nil, asConnectionError(err, "connection check failed")
	}
	return &NetworkStatus{
		Endpoint:    q.network.Endpoint(),
		Version:     version,
		CurrentSlot: slot,
	}, nil
}

// GetSignatureStatus re-queries a relayed transaction by its signature.
//
// Callers whose submit failed must use this before relaying the same flow again.
func (q *QueryClient) GetSignatureStatus(ctx context.Context, signature string) (*TransactionStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, NewValidationError("signature", "signature is not a valid transaction signature")
	}

	status, err := q.network.SignatureStatus(ctx, sig)
	if err != nil {
		return nil, err
	}

	result := &TransactionStatus{Signature: sig.String()}
	if status == nil {
		return result, nil
	}
	result.Found = true
	result.Slot = status.Slot
	result.ConfirmationStatus = status.ConfirmationStatus
	if status.Err != nil {
		result.Err = fmt.Sprintf("%v", status.Err)
	}
	return result, nil
}

func asConnectionError(err error, msg string) error {
	if IsTransient(err) {
		return err
	}
	return WrapConnectionError(err, msg)
}
