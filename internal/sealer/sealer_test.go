package sealer

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundtrip(t *testing.T) {
	sealed, err := Seal("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("secret")) {
		t.Fatalf("sealed data contains the plaintext")
	}
	plain, err := Open("pass", sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if string(plain) != "secret" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
}

func TestOpenFailures(t *testing.T) {
	sealed, err := Seal("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-2] ^= 0xFF

	salted := bytes.Clone(sealed)
	salted[3] ^= 0x01

	wrongVersion := bytes.Clone(sealed)
	wrongVersion[0] = 9

	tests := []struct {
		name       string
		passphrase string
		data       []byte
		want       error
	}{
		{name: "wrong passphrase", passphrase: "other", data: sealed, want: ErrAuthFailed},
		{name: "tampered ciphertext", passphrase: "pass", data: tampered, want: ErrAuthFailed},
		{name: "tampered salt", passphrase: "pass", data: salted, want: ErrAuthFailed},
		{name: "unknown version", passphrase: "pass", data: wrongVersion, want: ErrInvalid},
		{name: "truncated", passphrase: "pass", data: sealed[:headerSize], want: ErrInvalid},
		{name: "empty passphrase", passphrase: "", data: sealed, want: ErrPassphrase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.passphrase, tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
