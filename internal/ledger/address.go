package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58/base58"
)

// IsValidAddress reports whether s is a base58 account identifier that decodes to exactly
// solana.PublicKeyLength bytes.
//
// It is total over all strings: malformed input returns false, it never panics.
func IsValidAddress(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == solana.PublicKeyLength
}

// ParseAddress validates s and converts it to a solana.PublicKey.
//
// field names the input in the returned validation error.
func ParseAddress(field, s string) (solana.PublicKey, error) {
	if !IsValidAddress(s) {
		return solana.PublicKey{}, NewValidationError(field, field+" is not a valid account identifier")
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, NewValidationError(field, field+" is not a valid account identifier")
	}
	return pk, nil
}
