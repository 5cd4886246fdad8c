package cli

import (
	"fmt"
	"strings"

	"github.com/information-sharing-networks/zypp-relay/internal/keys"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Build, sign, relay and query transfers",
}

var (
	txFrom     string
	txTo       string
	txLamports int64
	txKeyPath  string
)

var txBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an unsigned transfer",
	Long: `Build an unsigned transfer of --lamports from --from (who also pays the fee) to --to.

The unsigned transaction is printed as base64 with its freshness token. Sign it with
'relayctl tx sign' and relay it with 'relayctl tx submit' before the token expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := newLedgerClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		ctx, cancel := rpcContext(cmd.Context(), false)
		defer cancel()

		unsigned, err := clients.builder.BuildTransfer(ctx, txFrom, txTo, txLamports)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"unsignedTransaction":  unsigned.Transaction,
			"blockhash":            unsigned.Blockhash,
			"lastValidBlockHeight": unsigned.LastValidBlockHeight,
		})
	},
}

var txSignCmd = &cobra.Command{
	Use:   "sign <unsigned-base64|->",
	Short: "Sign a transaction with a local key",
	Long:  `Sign a base64 transaction with --key (a .jwk file or a ledger keygen keypair file). Use - to read the transaction from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keys.LoadSigner(txKeyPath)
		if err != nil {
			return err
		}
		unsigned, err := argOrStdin(cmd, args[0])
		if err != nil {
			return err
		}
		signed, err := ledger.SignTransaction(unsigned, key)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
		return err
	},
}

var txSubmitCmd = &cobra.Command{
	Use:   "submit <signed-base64|->",
	Short: "Relay a signed transaction and wait for confirmation",
	Long: `Relay a signed base64 transaction (up to 3 attempts on connection errors) and wait for confirmation.

If submit fails the transaction may still land: check it with 'relayctl tx status <signature>'
before building a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signed, err := argOrStdin(cmd, args[0])
		if err != nil {
			return err
		}
		_, tx, err := ledger.DecodeSignedTransaction(signed)
		if err != nil {
			return err
		}

		clients, err := newLedgerClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		ctx, cancel := rpcContext(cmd.Context(), true)
		defer cancel()

		sig, err := clients.submitter.Submit(ctx, signed)
		if err != nil {
			return fmt.Errorf("%w (check the outcome with: relayctl tx status %s)", err, tx.Signatures[0])
		}
		return printJSON(cmd, map[string]any{
			"signature":   sig.String(),
			"explorerUrl": clients.explorerURL(sig.String()),
		})
	},
}

var txStatusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Query a relayed transaction by signature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := newLedgerClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		ctx, cancel := rpcContext(cmd.Context(), false)
		defer cancel()

		status, err := clients.query.GetSignatureStatus(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"signature":          status.Signature,
			"found":              status.Found,
			"slot":               status.Slot,
			"confirmationStatus": status.ConfirmationStatus,
			"err":                status.Err,
			"explorerUrl":        clients.explorerURL(status.Signature),
		})
	},
}

// argOrStdin returns arg, or the trimmed contents of stdin when arg is "-".
func argOrStdin(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := readInput(cmd, "-")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func init() {
	txBuildCmd.Flags().StringVar(&txFrom, "from", "", "Sender and fee payer address [required]")
	txBuildCmd.Flags().StringVar(&txTo, "to", "", "Recipient address [required]")
	txBuildCmd.Flags().Int64Var(&txLamports, "lamports", 0, "Amount in lamports [required]")
	_ = txBuildCmd.MarkFlagRequired("from")
	_ = txBuildCmd.MarkFlagRequired("to")
	_ = txBuildCmd.MarkFlagRequired("lamports")

	txSignCmd.Flags().StringVar(&txKeyPath, "key", "", "Signer key file [required]")
	_ = txSignCmd.MarkFlagRequired("key")

	txCmd.AddCommand(txBuildCmd, txSignCmd, txSubmitCmd, txStatusCmd)
	rootCmd.AddCommand(txCmd)
}
