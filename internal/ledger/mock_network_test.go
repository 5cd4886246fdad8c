package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// mockNetwork is a scripted Network used by the ledger tests.
type mockNetwork struct {
	mu sync.Mutex

	blockhash    Blockhash
	blockhashErr error

	// sendErrs are returned by successive SendRawTransaction calls, nil entries (or running out) mean success
	sendErrs []error
	// blockFirstSend makes the first SendRawTransaction call wait for its context to end
	blockFirstSend bool
	sendSig        solana.Signature
	statuses       []*SignatureStatus
	statusErr      error

	balance      uint64
	balanceErr   error
	airdropSig   solana.Signature
	airdropErr   error
	version      string
	versionErr   error
	slot         uint64
	endpointName string

	blockhashCalls int
	sendCalls      int
	statusCalls    int
	airdropCalls   int
	airdropAmount  uint64
}

func (m *mockNetwork) Endpoint() string { return m.endpointName }

func (m *mockNetwork) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockhashCalls++
	return m.blockhash, m.blockhashErr
}

func (m *mockNetwork) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	m.mu.Lock()
	m.sendCalls++
	if m.blockFirstSend && m.sendCalls == 1 {
		m.mu.Unlock()
		<-ctx.Done()
		return solana.Signature{}, ctx.Err()
	}
	defer m.mu.Unlock()
	if m.sendCalls <= len(m.sendErrs) && m.sendErrs[m.sendCalls-1] != nil {
		return solana.Signature{}, m.sendErrs[m.sendCalls-1]
	}
	return m.sendSig, nil
}

func (m *mockNetwork) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if len(m.statuses) == 0 {
		return nil, nil
	}
	idx := m.statusCalls - 1
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	return m.statuses[idx], nil
}

func (m *mockNetwork) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return m.balance, m.balanceErr
}

func (m *mockNetwork) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.airdropCalls++
	m.airdropAmount = lamports
	return m.airdropSig, m.airdropErr
}

func (m *mockNetwork) Version(ctx context.Context) (string, error) {
	return m.version, m.versionErr
}

func (m *mockNetwork) Slot(ctx context.Context) (uint64, error) {
	return m.slot, nil
}

var errDropped = errors.New("connection reset by peer")

func transientErr() error {
	return WrapConnectionError(errDropped, "sendTransaction failed")
}

func confirmedStatus() *SignatureStatus {
	return &SignatureStatus{Slot: 42, ConfirmationStatus: "confirmed"}
}

// testKey returns a deterministic key pair derived from seed.
func testKey(t *testing.T, seed byte) solana.PrivateKey {
	t.Helper()
	return solana.PrivateKey(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize)))
}

func testBlockhash(label string) solana.Hash {
	return solana.Hash(sha256.Sum256([]byte(label)))
}

func testConfirmer(network Network) *Confirmer {
	return NewConfirmer(network, nil, 200*time.Millisecond, time.Millisecond)
}

// signedTransfer returns a base64 signed transfer from payer to recipient and its fee payer signature.
func signedTransfer(t *testing.T, payer solana.PrivateKey, recipient solana.PublicKey, lamports uint64) (string, solana.Signature) {
	t.Helper()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, payer.PublicKey(), recipient).Build()},
		testBlockhash("recent"),
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		t.Fatalf("NewTransaction() error: %v", err)
	}

	sigs, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw), sigs[0]
}
