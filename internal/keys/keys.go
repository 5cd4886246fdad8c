// this file contains functions to generate and store the ed25519 keys used to sign envelopes
//
// Keys are saved as JWK sets (RFC 7517). The key ID is derived from the RFC 7638 thumbprint so the
// same key always gets the same ID. The ledger account identifier of a key is its base58 public key.
//
// Keypair files written by the ledger's own keygen tool (a JSON array of 64 bytes) can also be read.

package keys

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// GenerateSignerKey generates a new ed25519 signer key.
func GenerateSignerKey() (solana.PrivateKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return solana.PrivateKey(privateKey), nil
}

// KeyID returns the first 16 characters of the hex-encoded SHA-256 JWK thumbprint of publicKey.
func KeyID(publicKey solana.PublicKey) (string, error) {
	jwkKey, err := jwk.Import(ed25519.PublicKey(publicKey[:]))
	if err != nil {
		return "", fmt.Errorf("failed to import key: %w", err)
	}

	thumbprint, err := jwkKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to generate thumbprint: %w", err)
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}

// PrivateKeyToJWK converts a signer key to a JWK with its key ID, algorithm and usage set.
func PrivateKeyToJWK(privateKey solana.PrivateKey) (jwk.Key, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid Ed25519 private key length")
	}
	return toJWK(ed25519.PrivateKey(privateKey), privateKey.PublicKey())
}

// PublicKeyToJWK converts a signer's public key to a JWK.
func PublicKeyToJWK(publicKey solana.PublicKey) (jwk.Key, error) {
	return toJWK(ed25519.PublicKey(publicKey[:]), publicKey)
}

func toJWK(raw any, publicKey solana.PublicKey) (jwk.Key, error) {
	keyID, err := KeyID(publicKey)
	if err != nil {
		return nil, err
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from Ed25519 key: %w", err)
	}

	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.EdDSA()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	return key, nil
}

// SavePrivateKeyToJWKFile saves a signer key to a JWK file.
// note the key is not encrypted
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "signer.jwk")
func SavePrivateKeyToJWKFile(privateKey solana.PrivateKey, baseDir, filename string) error {
	jwkKey, err := PrivateKeyToJWK(privateKey)
	if err != nil {
		return fmt.Errorf("failed to create JWK: %w", err)
	}
	return writeJWKSet(jwkKey, baseDir, filename, 0600)
}

// SavePublicKeyToJWKFile saves a signer's public key to a JWK file.
func SavePublicKeyToJWKFile(publicKey solana.PublicKey, baseDir, filename string) error {
	jwkKey, err := PublicKeyToJWK(publicKey)
	if err != nil {
		return fmt.Errorf("failed to create JWK: %w", err)
	}
	return writeJWKSet(jwkKey, baseDir, filename, 0644)
}

func writeJWKSet(key jwk.Key, baseDir, filename string, perm os.FileMode) error {
	jwkSet := jwk.NewSet()
	if err := jwkSet.AddKey(key); err != nil {
		return fmt.Errorf("failed to add key to JWK set: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JWK set: %w", err)
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	if err := root.WriteFile(filename, jsonBytes, perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadPrivateKeyFromJWKFile loads a signer key from a JWK file.
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "signer.jwk")
func ReadPrivateKeyFromJWKFile(baseDir, filename string) (solana.PrivateKey, error) {
	raw, err := readFirstJWK(baseDir, filename)
	if err != nil {
		return nil, err
	}
	privateKey, ok := raw.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not an Ed25519 private key")
	}
	return solana.PrivateKey(privateKey), nil
}

// ReadPublicKeyFromJWKFile loads a signer's public key from a JWK file.
func ReadPublicKeyFromJWKFile(baseDir, filename string) (solana.PublicKey, error) {
	raw, err := readFirstJWK(baseDir, filename)
	if err != nil {
		return solana.PublicKey{}, err
	}
	publicKey, ok := raw.(ed25519.PublicKey)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("key is not an Ed25519 public key")
	}
	return solana.PublicKeyFromBytes(publicKey), nil
}

func readFirstJWK(baseDir, filename string) (any, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	jsonBytes, err := root.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	jwkSet, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK set: %w", err)
	}
	if jwkSet.Len() == 0 {
		return nil, fmt.Errorf("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, fmt.Errorf("failed to get key from JWK set")
	}

	var raw any
	if err := jwk.Export(jwkKey, &raw); err != nil {
		return nil, fmt.Errorf("failed to export key: %w", err)
	}
	return raw, nil
}

// LoadSigner reads a signer key from path. Files ending in .jwk are read as JWK sets, anything
// else as a ledger keygen keypair file.
func LoadSigner(path string) (solana.PrivateKey, error) {
	if strings.EqualFold(filepath.Ext(path), ".jwk") {
		return ReadPrivateKeyFromJWKFile(filepath.Dir(path), filepath.Base(path))
	}
	privateKey, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}
	return privateKey, nil
}
