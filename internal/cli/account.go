package cli

import (
	"fmt"

	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show an account balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := newLedgerClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		ctx, cancel := rpcContext(cmd.Context(), false)
		defer cancel()

		balance, err := clients.query.GetBalance(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", balance, ledger.DisplayUnit)
		return err
	},
}

var airdropCmd = &cobra.Command{
	Use:   "airdrop <address> <amount>",
	Short: "Request faucet credit (not available on mainnet)",
	Long:  `Request faucet credit of <amount> SOL (greater than 0 and at most 2) and wait for confirmation.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return ledger.NewValidationError("amount", fmt.Sprintf("%q is not a number", args[1]))
		}
		// checked before connecting so bad input never needs a network
		if err := ledger.ValidateFaucetAmount(amount); err != nil {
			return err
		}

		clients, err := newLedgerClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		ctx, cancel := rpcContext(cmd.Context(), true)
		defer cancel()

		sig, err := clients.query.RequestFaucetCredit(ctx, args[0], amount)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"signature":   sig.String(),
			"amount":      amount.String(),
			"publicKey":   args[0],
			"explorerUrl": clients.explorerURL(sig.String()),
		})
	},
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Ledger network utilities",
}

var networkStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the connection to the ledger network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := newLedgerClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		ctx, cancel := rpcContext(cmd.Context(), false)
		defer cancel()

		status, err := clients.query.GetNetworkStatus(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"network":     string(clients.profile.Cluster),
			"rpcUrl":      status.Endpoint,
			"version":     status.Version,
			"currentSlot": status.CurrentSlot,
			"faucet":      clients.profile.Faucet,
		})
	},
}

func init() {
	networkCmd.AddCommand(networkStatusCmd)
	rootCmd.AddCommand(balanceCmd, airdropCmd, networkCmd)
}
