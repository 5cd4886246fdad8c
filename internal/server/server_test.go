package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/envelope"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/information-sharing-networks/zypp-relay/internal/metrics"
	"github.com/information-sharing-networks/zypp-relay/internal/store"
)

// fakeNetwork answers every round trip from fixed values.
type fakeNetwork struct {
	mu        sync.Mutex
	sendErr   error
	sendCalls int
	lastSent  []byte
	balance   uint64
}

func (f *fakeNetwork) Endpoint() string { return "http://rpc.test" }

func (f *fakeNetwork) LatestBlockhash(ctx context.Context) (ledger.Blockhash, error) {
	return ledger.Blockhash{Hash: solana.Hash(sha256.Sum256([]byte("recent"))), LastValidBlockHeight: 150}, nil
}

func (f *fakeNetwork) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.lastSent = raw
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return solana.Signature{}, err
	}
	return tx.Signatures[0], nil
}

func (f *fakeNetwork) SignatureStatus(ctx context.Context, sig solana.Signature) (*ledger.SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastSent == nil {
		return nil, nil
	}
	return &ledger.SignatureStatus{Slot: 42, ConfirmationStatus: "confirmed"}, nil
}

func (f *fakeNetwork) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return f.balance, nil
}

func (f *fakeNetwork) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	return solana.Signature{}, errors.New("unexpected airdrop")
}

func (f *fakeNetwork) Version(ctx context.Context) (string, error) { return "2.1.0", nil }
func (f *fakeNetwork) Slot(ctx context.Context) (uint64, error)    { return 1234, nil }

func testKey(seed byte) solana.PrivateKey {
	return solana.PrivateKey(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize)))
}

type testEnv struct {
	network *fakeNetwork
	store   *store.MemoryStore
	handler http.Handler
}

func setupServer(t *testing.T, profile config.NetworkProfile) *testEnv {
	t.Helper()

	cfg := &config.ServerEnvironment{
		LedgerEnvironment: config.LedgerEnvironment{
			Environment:         "test",
			Network:             string(profile.Cluster),
			RelayRetryDelay:     time.Millisecond,
			ConfirmTimeout:      500 * time.Millisecond,
			ConfirmPollInterval: time.Millisecond,
		},
		MaxRequestSize:      1024,
		DatabasePingTimeout: time.Second,
	}

	network := &fakeNetwork{balance: 1_500_000_000}
	records := store.NewMemoryStore(time.Hour)
	t.Cleanup(records.Close)

	s := NewServer(cfg, slog.New(slog.DiscardHandler), records, network, profile, metrics.New())
	return &testEnv{network: network, store: records, handler: s.Router()}
}

var devnet = config.NetworkProfile{
	Cluster:         ledger.ClusterDevnet,
	RPCEndpoint:     "http://rpc.test",
	ExplorerCluster: ledger.ClusterDevnet,
	Faucet:          true,
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
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

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.DetailedError {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if len(resp.Errors) == 0 {
		t.Fatal("error response has no detailed errors")
	}
	return resp.Errors[0]
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

func TestCommonRoutes(t *testing.T) {
	env := setupServer(t, devnet)

	tests := []struct {
		path     string
		contains string
	}{
		{"/health", `"status":"UP"`},
		{"/version", `"version"`},
		{"/metrics", "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.path, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q: %s", tt.contains, rr.Body.String())
			}
		})
	}
}

func TestCreateSubmitAndStatus(t *testing.T) {
	env := setupServer(t, devnet)
	sender := testKey(1)
	recipient := testKey(2).PublicKey()

	rr := env.do(t, http.MethodPost, "/api/mobile/transaction/create", api.CreateTransactionRequest{
		FromPublicKey: sender.PublicKey().String(),
		ToPublicKey:   recipient.String(),
		Lamports:      1000,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created api.CreateTransactionResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("create: decode error: %v", err)
	}
	if created.LastValidBlockHeight != 150 || created.Blockhash == "" {
		t.Errorf("create: unexpected freshness metadata %+v", created)
	}

	signed := signTransaction(t, created.UnsignedTransaction, sender)

	rr = env.do(t, http.MethodPost, "/api/mobile/transaction/submit", api.SubmitTransactionRequest{
		SignedTransaction: signed,
		EnvelopeID:        "env-1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var submitted api.SubmitTransactionResponse
	if err := json.NewDecoder(rr.Body).Decode(&submitted); err != nil {
		t.Fatalf("submit: decode error: %v", err)
	}
	if !strings.Contains(submitted.ExplorerURL, "cluster=devnet") {
		t.Errorf("submit: explorer url %q is not a devnet link", submitted.ExplorerURL)
	}

	rr = env.do(t, http.MethodGet, "/api/mobile/transaction/"+submitted.Signature+"/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var status api.TransactionStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("status: decode error: %v", err)
	}
	if !status.Found || status.ConfirmationStatus != "confirmed" {
		t.Errorf("status: unexpected network status %+v", status)
	}
	if status.Submission == nil || status.Submission.Status != string(store.SubmissionConfirmed) || status.Submission.EnvelopeID != "env-1" {
		t.Errorf("status: unexpected submission record %+v", status.Submission)
	}
}

func TestCreateTransaction_InvalidInput(t *testing.T) {
	env := setupServer(t, devnet)

	tests := []struct {
		name         string
		body         any
		wantStatus   int
		wantCode     api.ErrorCode
		wantProperty string
	}{
		{
			name:         "invalid sender",
			body:         api.CreateTransactionRequest{FromPublicKey: "not-an-address", ToPublicKey: testKey(2).PublicKey().String(), Lamports: 1},
			wantStatus:   http.StatusBadRequest,
			wantCode:     api.ErrCodeValidation,
			wantProperty: "from",
		},
		{
			name:         "zero amount",
			body:         api.CreateTransactionRequest{FromPublicKey: testKey(1).PublicKey().String(), ToPublicKey: testKey(2).PublicKey().String()},
			wantStatus:   http.StatusBadRequest,
			wantCode:     api.ErrCodeValidation,
			wantProperty: "amount",
		},
		{
			name:       "not json",
			body:       []byte("{"),
			wantStatus: http.StatusBadRequest,
			wantCode:   api.ErrCodeMalformedRequest,
		},
		{
			name:       "too large",
			body:       []byte(`{"fromPublicKey":"` + strings.Repeat("x", 2048) + `"}`),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   api.ErrCodeRequestTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/mobile/transaction/create", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			detail := decodeError(t, rr)
			if detail.ErrorCode != tt.wantCode {
				t.Errorf("errorCode = %d, want %d", detail.ErrorCode, tt.wantCode)
			}
			if detail.Property != tt.wantProperty {
				t.Errorf("property = %q, want %q", detail.Property, tt.wantProperty)
			}
		})
	}
}

func TestSubmitTransaction_RelayFailure(t *testing.T) {
	env := setupServer(t, devnet)
	env.network.sendErr = ledger.WrapConnectionError(errors.New("connection reset by peer"), "sendTransaction failed")

	sender := testKey(1)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1000, sender.PublicKey(), testKey(2).PublicKey()).Build()},
		solana.Hash(sha256.Sum256([]byte("recent"))),
		solana.TransactionPayer(sender.PublicKey()),
	)
	if err != nil {
		t.Fatalf("NewTransaction() error: %v", err)
	}
	sigs, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey { return &sender })
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}

	rr := env.do(t, http.MethodPost, "/api/mobile/transaction/submit", api.SubmitTransactionRequest{
		SignedTransaction: base64.StdEncoding.EncodeToString(raw),
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body = %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Transaction-Signature"); got != sigs[0].String() {
		t.Errorf("X-Transaction-Signature = %q, want %q", got, sigs[0].String())
	}
	if detail := decodeError(t, rr); detail.ErrorCode != api.ErrCodeSubmitFailed {
		t.Errorf("errorCode = %d, want %d", detail.ErrorCode, api.ErrCodeSubmitFailed)
	}
	if env.network.sendCalls != ledger.MaxRelayAttempts {
		t.Errorf("send calls = %d, want %d", env.network.sendCalls, ledger.MaxRelayAttempts)
	}

	record, err := env.store.GetSubmission(context.Background(), sigs[0].String())
	if err != nil {
		t.Fatalf("GetSubmission() error: %v", err)
	}
	if record.Status != store.SubmissionUnknown || record.Error == "" {
		t.Errorf("unexpected submission record %+v", record)
	}
}

func TestSubmitTransaction_Unsigned(t *testing.T) {
	env := setupServer(t, devnet)

	unsigned, err := ledger.EncodeUnsignedTransfer(testKey(1).PublicKey(), testKey(2).PublicKey(), 1000, solana.Hash{1})
	if err != nil {
		t.Fatalf("EncodeUnsignedTransfer() error: %v", err)
	}

	rr := env.do(t, http.MethodPost, "/api/mobile/transaction/submit", api.SubmitTransactionRequest{SignedTransaction: unsigned})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rr.Code, rr.Body.String())
	}
	if env.network.sendCalls != 0 {
		t.Errorf("send calls = %d, want 0", env.network.sendCalls)
	}
}

func TestBalanceAndConnection(t *testing.T) {
	env := setupServer(t, devnet)
	account := testKey(3).PublicKey().String()

	rr := env.do(t, http.MethodGet, "/api/mobile/balance/"+account, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("balance: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var balance api.BalanceResponse
	if err := json.NewDecoder(rr.Body).Decode(&balance); err != nil {
		t.Fatalf("balance: decode error: %v", err)
	}
	if balance.Balance != "1.5" || balance.Unit != "SOL" || balance.PublicKey != account {
		t.Errorf("balance: unexpected response %+v", balance)
	}

	rr = env.do(t, http.MethodGet, "/api/mobile/balance/0OIl", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid address: status = %d, want 400", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/mobile/connection", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("connection: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var conn api.ConnectionResponse
	if err := json.NewDecoder(rr.Body).Decode(&conn); err != nil {
		t.Fatalf("connection: decode error: %v", err)
	}
	if conn.Status != "connected" || conn.CurrentSlot != 1234 || conn.Version != "2.1.0" || conn.RPCURL != "http://rpc.test" {
		t.Errorf("connection: unexpected response %+v", conn)
	}
}

func TestAirdrop_NoFaucet(t *testing.T) {
	mainnet := config.NetworkProfile{
		Cluster:         ledger.ClusterMainnet,
		RPCEndpoint:     "http://rpc.test",
		ExplorerCluster: ledger.ClusterMainnet,
	}
	env := setupServer(t, mainnet)

	rr := env.do(t, http.MethodPost, "/api/mobile/airdrop", []byte(`{"publicKey":"`+testKey(3).PublicKey().String()+`","amount":1}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rr.Code, rr.Body.String())
	}
	if detail := decodeError(t, rr); detail.Property != "network" {
		t.Errorf("property = %q, want network", detail.Property)
	}
}

func TestVerifyEnvelope(t *testing.T) {
	env := setupServer(t, devnet)
	sender := testKey(1)

	payload, err := envelope.NewPayload([]byte("hello"), envelope.EncodingBase64, false)
	if err != nil {
		t.Fatalf("NewPayload() error: %v", err)
	}
	e, err := envelope.Encode(envelope.Header{
		ID:        "0b9f7c1e-3a55-4e39-9d4e-6f0f3c2f8a11",
		Type:      envelope.TypeMessage,
		Version:   envelope.CurrentVersion,
		CreatedAt: time.Now().Unix(),
		Sender:    sender.PublicKey().String(),
		Recipient: testKey(2).PublicKey().String(),
	}, envelope.Meta{Network: envelope.NetworkDevnet}, payload, nil)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if err := envelope.Sign(e, sender); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	body, err := envelope.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	rr := env.do(t, http.MethodPost, "/api/mobile/envelopes/verify", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("first verify: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var verified api.VerifyEnvelopeResponse
	if err := json.NewDecoder(rr.Body).Decode(&verified); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if verified.ID != e.Header.ID || len(verified.Signers) != 1 || verified.Signers[0] != sender.PublicKey().String() {
		t.Errorf("unexpected response %+v", verified)
	}

	rr = env.do(t, http.MethodPost, "/api/mobile/envelopes/verify", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("replay: status = %d, want 409", rr.Code)
	}
	if detail := decodeError(t, rr); detail.ErrorCode != api.ErrCodeDuplicateEnvelope {
		t.Errorf("replay: errorCode = %d, want %d", detail.ErrorCode, api.ErrCodeDuplicateEnvelope)
	}

	tampered := *e
	tampered.Header.ID = "another-id"
	tampered.Payload.Checksum = strings.Repeat("0", 64)
	body, err = envelope.Marshal(&tampered)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	rr = env.do(t, http.MethodPost, "/api/mobile/envelopes/verify", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("tampered: status = %d, want 400", rr.Code)
	}
	if detail := decodeError(t, rr); detail.ErrorCode != api.ErrCodeBadChecksum {
		t.Errorf("tampered: errorCode = %d, want %d", detail.ErrorCode, api.ErrCodeBadChecksum)
	}
}
