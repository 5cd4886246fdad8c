package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.LedgerEnvironment
	appLogger *slog.Logger

	networkFlag string
)

var rootCmd = &cobra.Command{
	Use:               "relayctl",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	Short:             "Transfer relay CLI",
	Long: `relayctl builds, relays and queries transfers on the ledger network and creates,
signs and verifies package envelopes.

The network is selected with NETWORK (or --network) and RPC_ENDPOINT overrides the profile's endpoint.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewLedgerConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}
		if networkFlag != "" {
			cfg.Network = networkFlag
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "", "network profile: mainnet, devnet, testnet or localnet (overrides NETWORK)")
}

// printJSON writes v to the command's output as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// readInput reads a file argument, or stdin when the argument is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
