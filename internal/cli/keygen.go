package cli

import (
	"fmt"
	"os"

	"github.com/information-sharing-networks/zypp-relay/internal/keys"
	"github.com/spf13/cobra"
)

// file naming convention - name.public.jwk and name.private.jwk
const (
	publicKeyFileNameFormat  = "%s.public.jwk"
	privateKeyFileNameFormat = "%s.private.jwk"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 signer key",
	Long: `Generate a new ed25519 key pair for signing transactions and envelopes.

The private key is saved as a JWK set readable only by the owner. The account address
(base58 public key) is printed and can be shared.

Example:
  relayctl keygen --name alice --outputdir ./keys`,
	RunE: runKeygen,
}

var (
	keyName   string
	keyOutDir string
)

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&keyName, "name", "n", "", "Key name used for the file names [required]")
	keygenCmd.Flags().StringVarP(&keyOutDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	_ = keygenCmd.MarkFlagRequired("name")
	_ = keygenCmd.MarkFlagRequired("outputdir")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(keyOutDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	privateKey, err := keys.GenerateSignerKey()
	if err != nil {
		return err
	}
	publicKey := privateKey.PublicKey()

	keyID, err := keys.KeyID(publicKey)
	if err != nil {
		return err
	}

	publicFile := fmt.Sprintf(publicKeyFileNameFormat, keyName)
	if err := keys.SavePublicKeyToJWKFile(publicKey, keyOutDir, publicFile); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, keyName)
	if err := keys.SavePrivateKeyToJWKFile(privateKey, keyOutDir, privateFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Address:     %s\n", publicKey)
	fmt.Fprintf(out, "Key ID:      %s\n", keyID)
	fmt.Fprintf(out, "Public JWK:  %s/%s\n", keyOutDir, publicFile)
	fmt.Fprintf(out, "Private JWK: %s/%s\n", keyOutDir, privateFile)
	return nil
}
