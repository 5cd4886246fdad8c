package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
)

// NetworkProfile describes how to reach one ledger network.
type NetworkProfile struct {
	Cluster     ledger.Cluster
	RPCEndpoint string

	// ExplorerCluster is the cluster used in explorer links
	ExplorerCluster ledger.Cluster

	// Faucet is false for networks without a faucet (mainnet)
	Faucet bool
}

var defaultProfiles = map[string]NetworkProfile{
	"mainnet": {
		Cluster:         ledger.ClusterMainnet,
		RPCEndpoint:     "https://api.mainnet-beta.solana.com",
		ExplorerCluster: ledger.ClusterMainnet,
		Faucet:          false,
	},
	"devnet": {
		Cluster:         ledger.ClusterDevnet,
		RPCEndpoint:     "https://api.devnet.solana.com",
		ExplorerCluster: ledger.ClusterDevnet,
		Faucet:          true,
	},
	"testnet": {
		Cluster:         ledger.ClusterTestnet,
		RPCEndpoint:     "https://api.testnet.solana.com",
		ExplorerCluster: ledger.ClusterTestnet,
		Faucet:          true,
	},
	"localnet": {
		Cluster:         ledger.ClusterLocalnet,
		RPCEndpoint:     "http://127.0.0.1:8899",
		ExplorerCluster: ledger.ClusterLocalnet,
		Faucet:          true,
	},
}

// networksFile is the YAML layout of NETWORKS_FILE:
//
//	networks:
//	  devnet:
//	    rpcEndpoint: https://my-devnet-rpc.example.com
//	    faucet: false
type networksFile struct {
	Networks map[string]networkOverride `yaml:"networks"`
}

type networkOverride struct {
	RPCEndpoint     string `yaml:"rpcEndpoint"`
	ExplorerCluster string `yaml:"explorerCluster"`
	Faucet          *bool  `yaml:"faucet"`
}

// LoadNetworkProfile resolves the profile for cfg.Network: built-in defaults, then NETWORKS_FILE, then RPC_ENDPOINT.
func LoadNetworkProfile(cfg *LedgerEnvironment) (*NetworkProfile, error) {
	profile, ok := defaultProfiles[cfg.Network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", cfg.Network)
	}

	if cfg.NetworksFile != "" {
		data, err := os.ReadFile(cfg.NetworksFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read NETWORKS_FILE: %w", err)
		}
		var parsed networksFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse NETWORKS_FILE: %w", err)
		}
		if override, ok := parsed.Networks[cfg.Network]; ok {
			if err := merge(&profile, override); err != nil {
				return nil, fmt.Errorf("NETWORKS_FILE network %s: %w", cfg.Network, err)
			}
		}
	}

	if endpoint := strings.TrimSpace(cfg.RPCEndpoint); endpoint != "" {
		profile.RPCEndpoint = endpoint
	}

	// the faucet is never available on mainnet, whatever the file says
	if profile.Cluster == ledger.ClusterMainnet {
		profile.Faucet = false
	}
	return &profile, nil
}

func merge(dst *NetworkProfile, src networkOverride) error {
	if src.RPCEndpoint != "" {
		dst.RPCEndpoint = src.RPCEndpoint
	}
	if src.ExplorerCluster != "" {
		cluster, err := ledger.ParseCluster(src.ExplorerCluster)
		if err != nil {
			return err
		}
		dst.ExplorerCluster = cluster
	}
	if src.Faucet != nil {
		dst.Faucet = *src.Faucet
	}
	return nil
}
