package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// checkTypeConsistency checks that decoded payload bytes have the shape header.type declares.
//
// multi payloads are a JSON array of sub-payloads; the elements themselves are not checked.
func checkTypeConsistency(t PackageType, raw []byte) error {
	switch t {
	case TypeTransaction:
		dec := bin.NewBinDecoder(raw)
		tx, err := solana.TransactionFromDecoder(dec)
		if err != nil {
			return fmt.Errorf("not a ledger transaction: %w", err)
		}
		if dec.HasRemaining() {
			return fmt.Errorf("transaction has %d trailing bytes", dec.Remaining())
		}
		if len(tx.Message.Instructions) == 0 {
			return errors.New("transaction has no instructions")
		}
	case TypeMessage:
		if len(raw) == 0 || !utf8.Valid(raw) {
			return errors.New("message must be non-empty UTF-8 text")
		}
	case TypeAsset:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return errors.New("asset must be a JSON object")
		}
	case TypeMulti:
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return errors.New("multi payload must be a JSON array")
		}
		if len(parts) == 0 {
			return errors.New("multi payload has no parts")
		}
	default:
		return fmt.Errorf("unknown type %q", t)
	}
	return nil
}
