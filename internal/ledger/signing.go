package ledger

import (
	"encoding/base64"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// SignTransaction signs an unsigned base64 transaction with key and returns the signed base64
// transaction. It is for client tooling: the relay itself never holds signer keys.
//
// key must be one of the transaction's required signers. Signatures already present for other
// signers are kept.
func SignTransaction(unsignedBase64 string, key solana.PrivateKey) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(unsignedBase64))
	if err != nil {
		return "", WrapInvalidEncodingError(err, "transaction must be a valid base64 encoded string")
	}
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return "", WrapInvalidEncodingError(err, "transaction is not a valid ledger transaction")
	}

	signer := key.PublicKey()
	required := false
	for _, k := range tx.Message.Signers() {
		if k.Equals(signer) {
			required = true
			break
		}
	}
	if !required {
		return "", NewValidationError("key", signer.String()+" is not a required signer of this transaction")
	}

	if _, err := tx.PartialSign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(signer) {
			return &key
		}
		return nil
	}); err != nil {
		return "", WrapInternalError(err, "failed to sign transaction")
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return "", WrapInternalError(err, "failed to encode signed transaction")
	}
	return base64.StdEncoding.EncodeToString(signed), nil
}
