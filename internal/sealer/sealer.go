// Package sealer encrypts payload bytes with a passphrase before they are wrapped in an envelope.
//
// Sealed data is laid out as
//
//	version(1) | salt(16) | nonce(24) | XChaCha20-Poly1305 ciphertext
//
// with the key derived by argon2id from the passphrase and salt. The version, salt and nonce are
// authenticated as additional data.
package sealer

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	formatVersion byte = 1
	saltSize           = 16

	kdfTime     = 2
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 1

	headerSize = 1 + saltSize + chacha20poly1305.NonceSizeX
)

var (
	ErrAuthFailed = errors.New("sealed data authentication failed")
	ErrInvalid    = errors.New("sealed data is invalid")
	ErrPassphrase = errors.New("passphrase is required")
)

// Seal encrypts plaintext under passphrase.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrPassphrase
	}

	header := make([]byte, headerSize)
	header[0] = formatVersion
	salt := header[1 : 1+saltSize]
	nonce := header[1+saltSize:]
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	key := deriveKey(passphrase, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(header, nonce, plaintext, header), nil
}

// Open decrypts data produced by Seal.
func Open(passphrase string, sealed []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrPassphrase
	}
	if len(sealed) < headerSize+chacha20poly1305.Overhead || sealed[0] != formatVersion {
		return nil, ErrInvalid
	}

	header := sealed[:headerSize]
	salt := header[1 : 1+saltSize]
	nonce := header[1+saltSize:]

	key := deriveKey(passphrase, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, sealed[headerSize:], header)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, kdfTime, kdfMemoryKB, kdfThreads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
