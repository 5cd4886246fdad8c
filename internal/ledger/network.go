package ledger

// network.go defines the port used by every ledger component to talk to the network.
//
// Components never hold a global client: a Network is constructed once at startup
// and passed to each component. The RPC implementation multiplexes requests over a
// single client and is safe for concurrent use.

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Cluster identifies the ledger network a component is talking to.
type Cluster string

const (
	ClusterMainnet  Cluster = "mainnet"
	ClusterDevnet   Cluster = "devnet"
	ClusterTestnet  Cluster = "testnet"
	ClusterLocalnet Cluster = "localnet"
)

// ParseCluster converts a network name to a Cluster.
func ParseCluster(s string) (Cluster, error) {
	switch c := Cluster(s); c {
	case ClusterMainnet, ClusterDevnet, ClusterTestnet, ClusterLocalnet:
		return c, nil
	}
	return "", NewValidationError("network", fmt.Sprintf("unknown network %q", s))
}

// Commitment is the commitment level used for every read and confirmation.
const Commitment = rpc.CommitmentConfirmed

// Blockhash is a freshness token and the last block height at which it is valid.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus is the network's view of a relayed transaction.
type SignatureStatus struct {
	Slot               uint64
	ConfirmationStatus string

	// Err is the transaction error reported by the network, nil on success
	Err any
}

// Confirmed reports whether the status is at or beyond the configured commitment.
func (s *SignatureStatus) Confirmed() bool {
	return s.ConfirmationStatus == string(rpc.ConfirmationStatusConfirmed) ||
		s.ConfirmationStatus == string(rpc.ConfirmationStatusFinalized)
}

// Network is the set of network round trips the core needs.
//
// All methods are blocking; callers apply their own timeout through ctx.
// Implementations return connection errors (ErrCodeConnection) for transient failures
// and rejected errors (ErrCodeRejected) for network-side refusals.
type Network interface {
	// Endpoint is the RPC URL used for status reporting.
	Endpoint() string

	LatestBlockhash(ctx context.Context) (Blockhash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)

	// SignatureStatus returns nil, nil when the network has no record of the signature.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)
	Version(ctx context.Context) (string, error)
	Slot(ctx context.Context) (uint64, error)
}

// RPCNetwork implements Network over the JSON-RPC API.
type RPCNetwork struct {
	endpoint string
	client   *rpc.Client
}

// NewRPCNetwork creates a Network for the given RPC endpoint.
func NewRPCNetwork(endpoint string) *RPCNetwork {
	return &RPCNetwork{
		endpoint: endpoint,
		client:   rpc.New(endpoint),
	}
}

func (n *RPCNetwork) Endpoint() string { return n.endpoint }

// Close releases the underlying HTTP client.
func (n *RPCNetwork) Close() error {
	return n.client.Close()
}

func (n *RPCNetwork) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	out, err := n.client.GetLatestBlockhash(ctx, Commitment)
	if err != nil {
		return Blockhash{}, classifyRPCError(err, "getLatestBlockhash failed")
	}
	if out == nil || out.Value == nil {
		return Blockhash{}, WrapInternalError(errors.New("empty response"), "getLatestBlockhash failed")
	}
	return Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// SendRawTransaction relays raw with preflight at the configured commitment.
// MaxRetries is pinned to zero so the node does not rebroadcast; retries are owned by the Submitter.
func (n *RPCNetwork) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	var maxRetries uint
	sig, err := n.client.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		PreflightCommitment: Commitment,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		return solana.Signature{}, classifyRPCError(err, "sendTransaction failed")
	}
	return sig, nil
}

func (n *RPCNetwork) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	out, err := n.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, classifyRPCError(err, "getSignatureStatuses failed")
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	status := out.Value[0]
	return &SignatureStatus{
		Slot:               status.Slot,
		ConfirmationStatus: string(status.ConfirmationStatus),
		Err:                status.Err,
	}, nil
}

func (n *RPCNetwork) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := n.client.GetBalance(ctx, account, Commitment)
	if err != nil {
		return 0, classifyRPCError(err, "getBalance failed")
	}
	if out == nil {
		return 0, nil
	}
	return out.Value, nil
}

func (n *RPCNetwork) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := n.client.RequestAirdrop(ctx, account, lamports, Commitment)
	if err != nil {
		return solana.Signature{}, classifyRPCError(err, "requestAirdrop failed")
	}
	return sig, nil
}

func (n *RPCNetwork) Version(ctx context.Context) (string, error) {
	out, err := n.client.GetVersion(ctx)
	if err != nil {
		return "", classifyRPCError(err, "getVersion failed")
	}
	if out == nil {
		return "", nil
	}
	return out.SolanaCore, nil
}

func (n *RPCNetwork) Slot(ctx context.Context) (uint64, error) {
	slot, err := n.client.GetSlot(ctx, Commitment)
	if err != nil {
		return 0, classifyRPCError(err, "getSlot failed")
	}
	return slot, nil
}

// classifyRPCError separates JSON-RPC error responses (the node answered and refused)
// from transport failures (the request may never have arrived).
func classifyRPCError(err error, msg string) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return WrapRejectedError(err, msg)
	}
	if errors.Is(err, context.Canceled) {
		return WrapInternalError(err, msg)
	}
	return WrapConnectionError(err, msg)
}
