package envelope

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// NewPayload text-encodes raw and sets its checksum.
func NewPayload(raw []byte, encoding Encoding, encrypted bool) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, NewMalformedError("payload data is empty")
	}
	var data string
	switch encoding {
	case EncodingBase64:
		data = base64.StdEncoding.EncodeToString(raw)
	case EncodingHex:
		data = hex.EncodeToString(raw)
	default:
		return Payload{}, NewMalformedError(fmt.Sprintf("payload.encoding %q is not recognised", encoding))
	}
	return Payload{
		Encrypted: encrypted,
		Encoding:  encoding,
		Data:      data,
		Checksum:  Checksum(raw),
	}, nil
}

// Bytes returns the payload data with its text encoding undone.
func (p Payload) Bytes() ([]byte, error) {
	switch p.Encoding {
	case EncodingBase64:
		return base64.StdEncoding.DecodeString(p.Data)
	case EncodingHex:
		return hex.DecodeString(p.Data)
	}
	return nil, fmt.Errorf("unknown encoding %q", p.Encoding)
}

// Checksum returns the lowercase hex SHA-256 of raw.
func Checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
