//go:build integration

// functions that are useful in integration tests

package integration

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
)

// fakeNetwork is an in-memory ledger: transfers move lamports between accounts and every
// accepted transaction is confirmed in the next slot.
type fakeNetwork struct {
	mu        sync.Mutex
	slot      uint64
	balances  map[solana.PublicKey]uint64
	statuses  map[solana.Signature]*ledger.SignatureStatus
	sendCalls int
}

var _ ledger.Network = (*fakeNetwork)(nil)

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		slot:     100,
		balances: make(map[solana.PublicKey]uint64),
		statuses: make(map[solana.Signature]*ledger.SignatureStatus),
	}
}

func (f *fakeNetwork) Endpoint() string { return "http://fake-rpc.test" }

func (f *fakeNetwork) LatestBlockhash(ctx context.Context) (ledger.Blockhash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ledger.Blockhash{
		Hash:                 solana.Hash(sha256.Sum256([]byte(fmt.Sprintf("slot-%d", f.slot)))),
		LastValidBlockHeight: f.slot + 150,
	}, nil
}

// SendRawTransaction applies the first instruction as a system transfer.
func (f *fakeNetwork) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return solana.Signature{}, ledger.WrapRejectedError(err, "failed to deserialize transaction")
	}
	if len(tx.Signatures) == 0 || len(tx.Message.Instructions) == 0 {
		return solana.Signature{}, ledger.WrapRejectedError(errors.New("transaction has no signatures or instructions"), "transaction rejected")
	}

	ix := tx.Message.Instructions[0]
	if len(ix.Accounts) < 2 || len(ix.Data) < 12 {
		return solana.Signature{}, ledger.WrapRejectedError(errors.New("unsupported instruction"), "transaction rejected")
	}
	from := tx.Message.AccountKeys[ix.Accounts[0]]
	to := tx.Message.AccountKeys[ix.Accounts[1]]
	lamports := binary.LittleEndian.Uint64(ix.Data[4:12])

	if f.balances[from] < lamports {
		return solana.Signature{}, ledger.WrapRejectedError(errors.New("insufficient funds for transfer"), "transaction simulation failed")
	}
	f.balances[from] -= lamports
	f.balances[to] += lamports

	f.slot++
	sig := tx.Signatures[0]
	f.statuses[sig] = &ledger.SignatureStatus{Slot: f.slot, ConfirmationStatus: "confirmed"}
	return sig, nil
}

func (f *fakeNetwork) SignatureStatus(ctx context.Context, sig solana.Signature) (*ledger.SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[sig], nil
}

func (f *fakeNetwork) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[account], nil
}

func (f *fakeNetwork) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.slot++
	f.balances[account] += lamports

	var sig solana.Signature
	copy(sig[:], bytes.Repeat([]byte{byte(f.slot)}, len(sig)))
	f.statuses[sig] = &ledger.SignatureStatus{Slot: f.slot, ConfirmationStatus: "finalized"}
	return sig, nil
}

func (f *fakeNetwork) sends() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

func (f *fakeNetwork) Version(ctx context.Context) (string, error) { return "2.1.0", nil }

func (f *fakeNetwork) Slot(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slot, nil
}

func testKey(seed byte) solana.PrivateKey {
	return solana.PrivateKey(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize)))
}

// doRequest sends body (marshalled unless it is already []byte) and returns the response.
// the caller closes the response body.
func (e *testEnv) doRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.baseURL+path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

// decodeResponse checks the status code and decodes the JSON body into out.
func decodeResponse(t *testing.T, resp *http.Response, wantStatus int, out any) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("status = %d, want %d, body = %s", resp.StatusCode, wantStatus, body)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("failed to decode response: %v (body: %s)", err, body)
	}
}

func decodeErrorResponse(t *testing.T, resp *http.Response, wantStatus int) api.DetailedError {
	t.Helper()
	var errResp api.ErrorResponse
	decodeResponse(t, resp, wantStatus, &errResp)
	if len(errResp.Errors) == 0 {
		t.Fatal("error response has no detailed errors")
	}
	return errResp.Errors[0]
}

// signTransaction signs an unsigned base64 transaction with key.
func signTransaction(t *testing.T, unsigned string, key solana.PrivateKey) string {
	t.Helper()

	tx, err := solana.TransactionFromBase64(unsigned)
	if err != nil {
		t.Fatalf("TransactionFromBase64() error: %v", err)
	}
	tx.Signatures = nil
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}
