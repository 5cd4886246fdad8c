package ledger

// builder.go creates unsigned transfer transactions for the client to sign.
//
// The transaction is serialized with zero-filled signature slots: it is legitimately
// unsigned until the client signs it, so no signature is required or verified here.
// The freshness token expires after a network-defined window; a stale token is only
// detected when the signed transaction is submitted.

import (
	"context"
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// UnsignedTransfer is a serialized unsigned transaction and the freshness token it is bound to.
type UnsignedTransfer struct {
	// Transaction is the base64 encoded wire format of the unsigned transaction
	Transaction string

	// Blockhash is the freshness token (base58)
	Blockhash string

	// LastValidBlockHeight is the last block height at which the transaction can land
	LastValidBlockHeight uint64
}

// Builder builds unsigned transfer transactions.
type Builder struct {
	network Network
}

func NewBuilder(network Network) *Builder {
	return &Builder{network: network}
}

// BuildTransfer builds a transaction moving lamports from `from` to `to`, with `from` as fee payer.
//
// Inputs are validated before the freshness token is fetched. Any later failure is returned as a
// build error wrapping the cause. Nothing is submitted.
//
// Two calls with identical inputs produce different output once the freshness token changes.
func (b *Builder) BuildTransfer(ctx context.Context, from, to string, lamports int64) (*UnsignedTransfer, error) {
	fromKey, err := ParseAddress("from", from)
	if err != nil {
		return nil, err
	}
	toKey, err := ParseAddress("to", to)
	if err != nil {
		return nil, err
	}
	if lamports <= 0 {
		return nil, NewValidationError("amount", "amount must be greater than 0")
	}

	blockhash, err := b.network.LatestBlockhash(ctx)
	if err != nil {
		return nil, WrapBuildError(err, "failed to fetch recent blockhash")
	}

	encoded, err := EncodeUnsignedTransfer(fromKey, toKey, uint64(lamports), blockhash.Hash)
	if err != nil {
		return nil, WrapBuildError(err, "failed to create transaction")
	}

	return &UnsignedTransfer{
		Transaction:          encoded,
		Blockhash:            blockhash.Hash.String(),
		LastValidBlockHeight: blockhash.LastValidBlockHeight,
	}, nil
}

// EncodeUnsignedTransfer assembles and serializes a single-instruction transfer.
//
// The output is a pure function of its inputs.
func EncodeUnsignedTransfer(from, to solana.PublicKey, lamports uint64, blockhash solana.Hash) (string, error) {
	instruction := system.NewTransferInstruction(lamports, from, to).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return "", err
	}

	// one empty slot per required signer
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
