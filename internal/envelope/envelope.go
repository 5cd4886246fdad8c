package envelope

import (
	"fmt"

	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
)

// CurrentVersion is the header version written by this package.
const CurrentVersion = "1.0"

// PackageType describes what an envelope carries.
type PackageType string

const (
	TypeTransaction PackageType = "transaction"
	TypeMessage     PackageType = "message"
	TypeAsset       PackageType = "asset"
	TypeMulti       PackageType = "multi"
)

func (t PackageType) valid() bool {
	switch t {
	case TypeTransaction, TypeMessage, TypeAsset, TypeMulti:
		return true
	}
	return false
}

// Network is the ledger network the envelope is intended for.
type Network string

const (
	NetworkMainnet  Network = "mainnet"
	NetworkDevnet   Network = "devnet"
	NetworkTestnet  Network = "testnet"
	NetworkLocalnet Network = "localnet"
)

func (n Network) valid() bool {
	switch n {
	case NetworkMainnet, NetworkDevnet, NetworkTestnet, NetworkLocalnet:
		return true
	}
	return false
}

// Encoding is the text encoding of payload.data.
type Encoding string

const (
	EncodingBase64 Encoding = "base64"
	EncodingHex    Encoding = "hex"
)

func (e Encoding) valid() bool {
	return e == EncodingBase64 || e == EncodingHex
}

type Header struct {
	// ID is caller supplied and must be unique per logical transaction
	ID   string      `json:"id"`
	Type PackageType `json:"type"`

	// Version is the envelope schema version
	Version string `json:"version"`

	// CreatedAt is a unix timestamp (seconds)
	CreatedAt int64  `json:"createdAt"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

type Meta struct {
	Network Network `json:"network"`
	Retries *int    `json:"retries,omitempty"`

	// Expiry is a unix timestamp (seconds) after which the envelope is rejected
	Expiry *int64   `json:"expiry,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

type Payload struct {
	// Encrypted payloads are opaque ciphertext and are never interpreted by type
	Encrypted bool     `json:"encrypted"`
	Encoding  Encoding `json:"encoding"`
	Data      string   `json:"data"`

	// Checksum is the lowercase hex SHA-256 of the decoded Data bytes
	Checksum string `json:"checksum"`
}

// Signature is a base58 ed25519 signature by Signer (a base58 account identifier).
type Signature struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

// Envelope is the package envelope.
type Envelope struct {
	Header     Header      `json:"header"`
	Meta       Meta        `json:"meta"`
	Payload    Payload     `json:"payload"`
	Signatures []Signature `json:"signatures"`
}

// Signers returns the signer of each signature, in order.
func (e *Envelope) Signers() []string {
	signers := make([]string, 0, len(e.Signatures))
	for _, s := range e.Signatures {
		signers = append(signers, s.Signer)
	}
	return signers
}

// maxSafeInteger is the largest integer canonical JSON (RFC 8785) serializes exactly.
// Larger values are rounded to the nearest double, so signatures over them would not cover
// the value on the wire.
const maxSafeInteger = 1<<53 - 1

// validate checks required fields, enum values and that the payload data decodes under its encoding.
func (e *Envelope) validate() error {
	h := e.Header
	switch {
	case h.ID == "":
		return NewMalformedError("header.id is required")
	case h.Type == "":
		return NewMalformedError("header.type is required")
	case !h.Type.valid():
		return NewMalformedError(fmt.Sprintf("header.type %q is not recognised", h.Type))
	case h.Version == "":
		return NewMalformedError("header.version is required")
	case h.CreatedAt <= 0:
		return NewMalformedError("header.createdAt is required")
	case h.CreatedAt > maxSafeInteger:
		return NewMalformedError("header.createdAt is out of range")
	case !ledger.IsValidAddress(h.Sender):
		return NewMalformedError("header.sender is not a valid account identifier")
	case !ledger.IsValidAddress(h.Recipient):
		return NewMalformedError("header.recipient is not a valid account identifier")
	}

	if e.Meta.Network == "" {
		return NewMalformedError("meta.network is required")
	}
	if !e.Meta.Network.valid() {
		return NewMalformedError(fmt.Sprintf("meta.network %q is not recognised", e.Meta.Network))
	}
	if r := e.Meta.Retries; r != nil && (*r < 0 || int64(*r) > maxSafeInteger) {
		return NewMalformedError("meta.retries must be between 0 and 2^53-1")
	}
	if x := e.Meta.Expiry; x != nil && (*x < -maxSafeInteger || *x > maxSafeInteger) {
		return NewMalformedError("meta.expiry is out of range")
	}

	p := e.Payload
	if p.Encoding == "" {
		return NewMalformedError("payload.encoding is required")
	}
	if !p.Encoding.valid() {
		return NewMalformedError(fmt.Sprintf("payload.encoding %q is not recognised", p.Encoding))
	}
	if p.Data == "" {
		return NewMalformedError("payload.data is required")
	}
	if p.Checksum == "" {
		return NewMalformedError("payload.checksum is required")
	}
	if _, err := p.Bytes(); err != nil {
		return WrapMalformedError(err, "payload.data does not match payload.encoding")
	}

	for i, s := range e.Signatures {
		if s.Signer == "" || s.Signature == "" {
			return NewMalformedError(fmt.Sprintf("signatures[%d] must have a signer and a signature", i))
		}
	}
	return nil
}
