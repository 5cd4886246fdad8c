package api

// these are the request and response bodies of the /api/mobile routes

import "github.com/shopspring/decimal"

// CreateTransactionRequest asks the gateway to build an unsigned transfer.
type CreateTransactionRequest struct {
	// FromPublicKey is the sender and fee payer (base58)
	FromPublicKey string `json:"fromPublicKey" example:"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"`

	// ToPublicKey is the recipient (base58)
	ToPublicKey string `json:"toPublicKey" example:"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"`

	// Lamports is the amount in the smallest unit, must be greater than 0
	Lamports int64 `json:"lamports" example:"1000"`
}

// CreateTransactionResponse carries the unsigned transaction for the client to sign.
type CreateTransactionResponse struct {
	// UnsignedTransaction is the base64 wire format with empty signature slots
	UnsignedTransaction string `json:"unsignedTransaction"`

	// Blockhash is the freshness token the transaction is bound to
	Blockhash string `json:"blockhash"`

	// LastValidBlockHeight is the last block height at which the signed transaction can land
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	Message              string `json:"message"`
}

// SubmitTransactionRequest relays a client-signed transaction.
type SubmitTransactionRequest struct {
	// SignedTransaction is the base64 wire format of the fully signed transaction
	SignedTransaction string `json:"signedTransaction"`

	// EnvelopeID optionally links the submission to a verified envelope
	EnvelopeID string `json:"envelopeId,omitempty"`
}

// SubmitTransactionResponse is returned once the transaction is confirmed.
type SubmitTransactionResponse struct {
	Signature   string `json:"signature"`
	ExplorerURL string `json:"explorerUrl"`
	Message     string `json:"message"`
}

// TransactionStatusResponse reports the network's view of a signature and, if the
// gateway relayed it, the gateway's record.
type TransactionStatusResponse struct {
	Signature string `json:"signature"`

	// Found is false when the network has no record of the signature
	Found              bool   `json:"found"`
	Slot               uint64 `json:"slot,omitempty"`
	ConfirmationStatus string `json:"confirmationStatus,omitempty"`
	Err                string `json:"err,omitempty"`
	ExplorerURL        string `json:"explorerUrl"`

	Submission *SubmissionRecord `json:"submission,omitempty"`
}

// SubmissionRecord is the gateway's record of a relayed transaction.
type SubmissionRecord struct {
	EnvelopeID string `json:"envelopeId,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// BalanceResponse is an account balance in display units.
type BalanceResponse struct {
	// Balance is a decimal string e.g. "1.5"
	Balance   string `json:"balance" example:"1.5"`
	PublicKey string `json:"publicKey"`
	Unit      string `json:"unit" example:"SOL"`
}

// AirdropRequest asks the network faucet for credit (non-production networks only).
type AirdropRequest struct {
	PublicKey string `json:"publicKey"`

	// Amount in display units, a JSON number or decimal string in (0, 2]
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"1"`
}

// AirdropResponse is returned once the faucet credit is confirmed.
type AirdropResponse struct {
	Signature   string `json:"signature"`
	Amount      string `json:"amount"`
	PublicKey   string `json:"publicKey"`
	ExplorerURL string `json:"explorerUrl"`
	Message     string `json:"message"`
}

// ConnectionResponse describes the ledger network the gateway is connected to.
type ConnectionResponse struct {
	Status      string `json:"status" example:"connected"`
	Network     string `json:"network" example:"devnet"`
	RPCURL      string `json:"rpcUrl"`
	Version     string `json:"version"`
	CurrentSlot uint64 `json:"currentSlot"`
}

// VerifyEnvelopeResponse is returned when an envelope passes verification and its id is new.
type VerifyEnvelopeResponse struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Network   string   `json:"network"`
	Signers   []string `json:"signers"`
	Duplicate bool     `json:"duplicate"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status" example:"UP"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}

// VersionResponse is returned by GET /version.
type VersionResponse struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}
