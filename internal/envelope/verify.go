package envelope

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

var errSignatureMismatch = errors.New("signature does not match the signable bytes")

// Verify checks env at the current time. See VerifyAt.
func Verify(env *Envelope) error {
	return VerifyAt(env, time.Now())
}

// VerifyAt checks env as of now and returns the first failure as an *EnvelopeError:
//
//   - checksum mismatch
//   - expiry before now
//   - any signature that does not verify (the error names the signer)
//   - unencrypted payload data inconsistent with header.type
//
// It does not modify env, so verifying the same envelope twice gives the same result.
func VerifyAt(env *Envelope, now time.Time) error {
	if env == nil {
		return NewMalformedError("envelope is nil")
	}
	if err := env.validate(); err != nil {
		return err
	}

	// validate has already decoded the data, data outside the encoding's alphabet is malformed
	raw, err := env.Payload.Bytes()
	if err != nil {
		return WrapMalformedError(err, "payload.data does not match payload.encoding")
	}
	if !strings.EqualFold(Checksum(raw), env.Payload.Checksum) {
		return NewChecksumMismatchError("payload checksum does not match payload data")
	}

	if env.Meta.Expiry != nil && now.Unix() > *env.Meta.Expiry {
		return NewExpiredError(fmt.Sprintf("envelope expired at %s",
			time.Unix(*env.Meta.Expiry, 0).UTC().Format(time.RFC3339)))
	}

	if len(env.Signatures) > 0 {
		msg, err := SignableBytes(env)
		if err != nil {
			return WrapMalformedError(err, "cannot derive signable bytes")
		}
		for _, s := range env.Signatures {
			if err := verifySignature(s, msg); err != nil {
				return WrapInvalidSignatureError(err, s.Signer, "invalid signature from "+s.Signer)
			}
		}
	}

	if !env.Payload.Encrypted {
		if err := checkTypeConsistency(env.Header.Type, raw); err != nil {
			return WrapTypePayloadMismatchError(err,
				fmt.Sprintf("payload is not a valid %s", env.Header.Type))
		}
	}
	return nil
}

func verifySignature(s Signature, msg []byte) error {
	signer, err := solana.PublicKeyFromBase58(s.Signer)
	if err != nil {
		return fmt.Errorf("signer is not a valid account identifier: %w", err)
	}
	sig, err := solana.SignatureFromBase58(s.Signature)
	if err != nil {
		return fmt.Errorf("signature is not valid base58: %w", err)
	}
	if !sig.Verify(signer, msg) {
		return errSignatureMismatch
	}
	return nil
}
