package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gowebpki/jcs"
)

// SignableBytes returns the bytes every signature is computed over: the RFC 8785 canonical JSON
// of the header, meta and payload sections. Signatures are excluded.
func SignableBytes(env *Envelope) ([]byte, error) {
	doc := struct {
		Header  Header  `json:"header"`
		Meta    Meta    `json:"meta"`
		Payload Payload `json:"payload"`
	}{env.Header, env.Meta, env.Payload}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signable sections: %w", err)
	}
	canonical, err := jcs.Transform(b)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize signable sections: %w", err)
	}
	return canonical, nil
}

// Sign appends a signature by key over the envelope's signable bytes.
//
// Existing signatures are kept. Any change to header, meta or payload after signing invalidates
// every signature.
func Sign(env *Envelope, key solana.PrivateKey) error {
	msg, err := SignableBytes(env)
	if err != nil {
		return err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("failed to sign envelope: %w", err)
	}
	env.Signatures = append(env.Signatures, Signature{
		Signer:    key.PublicKey().String(),
		Signature: sig.String(),
	})
	return nil
}
