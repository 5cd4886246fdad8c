package cli

import (
	"context"
	"fmt"

	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
)

// ledgerClients are the ledger components for the selected network profile.
type ledgerClients struct {
	profile   *config.NetworkProfile
	network   *ledger.RPCNetwork
	builder   *ledger.Builder
	submitter *ledger.Submitter
	query     *ledger.QueryClient
}

func newLedgerClients() (*ledgerClients, error) {
	profile, err := config.LoadNetworkProfile(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load network profile: %w", err)
	}

	network := ledger.NewRPCNetwork(profile.RPCEndpoint)
	confirmer := ledger.NewConfirmer(network, appLogger, cfg.ConfirmTimeout, cfg.ConfirmPollInterval)

	return &ledgerClients{
		profile: profile,
		network: network,
		builder: ledger.NewBuilder(network),
		submitter: ledger.NewSubmitter(network, confirmer, appLogger,
			ledger.WithRetryDelay(cfg.RelayRetryDelay)),
		query: ledger.NewQueryClient(network, confirmer, appLogger, profile.Faucet),
	}, nil
}

func (c *ledgerClients) Close() {
	_ = c.network.Close()
}

func (c *ledgerClients) explorerURL(signature string) string {
	return ledger.ExplorerURL(signature, c.profile.ExplorerCluster, c.profile.RPCEndpoint)
}

// rpcContext bounds a single command's network calls. Submits and faucet requests may relay more
// than once and then wait for confirmation.
func rpcContext(parent context.Context, waitsForConfirmation bool) (context.Context, context.CancelFunc) {
	timeout := cfg.RPCTimeout
	if waitsForConfirmation {
		timeout = cfg.RPCTimeout*ledger.MaxRelayAttempts + cfg.ConfirmTimeout
	}
	return context.WithTimeout(parent, timeout)
}
