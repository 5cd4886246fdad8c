package cli

import (
	"fmt"

	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Account address utilities",
}

var addressValidateCmd = &cobra.Command{
	Use:   "validate <address>...",
	Short: "Check account addresses are well formed",
	Long:  `Prints valid or invalid for each address. Exits non-zero if any address is invalid. No network call is made.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invalid := 0
		for _, addr := range args {
			result := "valid"
			if !ledger.IsValidAddress(addr) {
				result = "invalid"
				invalid++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", addr, result)
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d addresses are invalid", invalid, len(args))
		}
		return nil
	},
}

func init() {
	addressCmd.AddCommand(addressValidateCmd)
	rootCmd.AddCommand(addressCmd)
}
