package ledger

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// displayExponent is log10 of the number of lamports per SOL.
const displayExponent = 9

// DisplayUnit is the name of the ledger's display unit.
const DisplayUnit = "SOL"

// MaxFaucetCredit is the largest faucet request accepted, in display units.
var MaxFaucetCredit = decimal.NewFromInt(2)

// LamportsToDisplay converts a smallest-unit amount to display units without loss.
func LamportsToDisplay(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -displayExponent)
}

// DisplayToLamports converts a display-unit amount to smallest units.
//
// The amount must be non-negative and representable in whole smallest units.
func DisplayToLamports(field string, amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() {
		return 0, NewValidationError(field, field+" must not be negative")
	}
	lamports := amount.Shift(displayExponent)
	if !lamports.IsInteger() {
		return 0, NewValidationError(field, field+" has more precision than the smallest ledger unit")
	}
	bi := lamports.BigInt()
	if !bi.IsUint64() {
		return 0, NewValidationError(field, field+" is too large")
	}
	return bi.Uint64(), nil
}
