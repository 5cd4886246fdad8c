package envelope

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Encode assembles an envelope.
//
// payload.checksum is computed from the decoded payload data when it is empty and left as supplied
// otherwise (Verify will report a wrong one). The assembled envelope must be structurally valid.
func Encode(header Header, meta Meta, payload Payload, signatures []Signature) (*Envelope, error) {
	if payload.Checksum == "" {
		raw, err := payload.Bytes()
		if err != nil {
			return nil, WrapMalformedError(err, "payload.data does not match payload.encoding")
		}
		payload.Checksum = Checksum(raw)
	}

	env := &Envelope{
		Header:     header,
		Meta:       meta,
		Payload:    payload,
		Signatures: signatures,
	}
	normalize(env)

	if err := env.validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Decode parses an envelope from its JSON wire form.
//
// Missing required sections or fields, unrecognised enum values and payload data that does not
// decode under payload.encoding are reported as malformed. No integrity checks are done here; use Verify.
func Decode(raw []byte) (*Envelope, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, NewMalformedError("envelope is empty")
	}

	// presence of sections and of fields whose zero value is legal
	var present struct {
		Header *struct {
			CreatedAt *int64 `json:"createdAt"`
		} `json:"header"`
		Meta    *json.RawMessage `json:"meta"`
		Payload *struct {
			Encrypted *bool `json:"encrypted"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &present); err != nil {
		return nil, WrapMalformedError(err, "envelope is not valid JSON")
	}
	switch {
	case present.Header == nil:
		return nil, NewMalformedError("header is required")
	case present.Meta == nil:
		return nil, NewMalformedError("meta is required")
	case present.Payload == nil:
		return nil, NewMalformedError("payload is required")
	case present.Header.CreatedAt == nil:
		return nil, NewMalformedError("header.createdAt is required")
	case present.Payload.Encrypted == nil:
		return nil, NewMalformedError("payload.encrypted is required")
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, WrapMalformedError(err, "envelope does not match the envelope schema")
	}
	normalize(&env)

	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// DecodeString parses an envelope from text.
func DecodeString(s string) (*Envelope, error) {
	return Decode([]byte(strings.TrimSpace(s)))
}

// Marshal returns the JSON wire form of env.
func Marshal(env *Envelope) ([]byte, error) {
	out := *env
	normalize(&out)
	return json.Marshal(&out)
}

// normalize makes the in-memory form match what a round trip through JSON produces.
func normalize(env *Envelope) {
	if env.Signatures == nil {
		env.Signatures = []Signature{}
	}
	if len(env.Meta.Tags) == 0 {
		env.Meta.Tags = nil
	}
}
