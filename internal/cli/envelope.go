package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/information-sharing-networks/zypp-relay/internal/envelope"
	"github.com/information-sharing-networks/zypp-relay/internal/keys"
	"github.com/information-sharing-networks/zypp-relay/internal/sealer"
	"github.com/spf13/cobra"
)

// sealPassphraseEnv holds the passphrase used by --seal and envelope open.
const sealPassphraseEnv = "SEAL_PASSPHRASE"

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "Create, sign, verify and open package envelopes",
}

var (
	wrapType      string
	wrapID        string
	wrapSender    string
	wrapRecipient string
	wrapEncoding  string
	wrapExpiresIn time.Duration
	wrapRetries   int
	wrapTags      []string
	wrapSeal      bool
	wrapKeyPath   string

	signKeyPath string
	openOut     string
)

var envelopeWrapCmd = &cobra.Command{
	Use:   "wrap <payload-file|->",
	Short: "Wrap a payload in a new envelope",
	Long: `Wrap the contents of a file (or stdin) in a new envelope for the selected network.

The envelope id defaults to a new UUID. With --seal the payload is encrypted with the passphrase
in ` + sealPassphraseEnv + ` before wrapping and the envelope is marked encrypted. With --key the
envelope is signed and the sender defaults to the key's address.

Example:
  relayctl envelope wrap --type transaction --recipient <address> --key alice.private.jwk signed-tx.bin`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvelopeWrap,
}

func runEnvelopeWrap(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	sender := wrapSender
	var signingKey solana.PrivateKey
	if wrapKeyPath != "" {
		key, err := keys.LoadSigner(wrapKeyPath)
		if err != nil {
			return err
		}
		signingKey = key
		if sender == "" {
			sender = key.PublicKey().String()
		}
	}

	if wrapSeal {
		raw, err = sealer.Seal(os.Getenv(sealPassphraseEnv), raw)
		if err != nil {
			return fmt.Errorf("failed to seal payload: %w", err)
		}
	}

	payload, err := envelope.NewPayload(raw, envelope.Encoding(wrapEncoding), wrapSeal)
	if err != nil {
		return err
	}

	id := wrapID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()

	meta := envelope.Meta{
		Network: envelope.Network(cfg.Network),
		Tags:    wrapTags,
	}
	if wrapRetries >= 0 {
		retries := wrapRetries
		meta.Retries = &retries
	}
	if wrapExpiresIn > 0 {
		expiry := now.Add(wrapExpiresIn).Unix()
		meta.Expiry = &expiry
	}

	env, err := envelope.Encode(envelope.Header{
		ID:        id,
		Type:      envelope.PackageType(wrapType),
		Version:   envelope.CurrentVersion,
		CreatedAt: now.Unix(),
		Sender:    sender,
		Recipient: wrapRecipient,
	}, meta, payload, nil)
	if err != nil {
		return err
	}

	if signingKey != nil {
		if err := envelope.Sign(env, signingKey); err != nil {
			return err
		}
	}
	return writeEnvelope(cmd, env)
}

var envelopeSignCmd = &cobra.Command{
	Use:   "sign <envelope-file|->",
	Short: "Add a signature to an envelope",
	Long:  `Add a signature by --key to an envelope. Existing signatures are kept; the header, meta and payload must not change afterwards.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keys.LoadSigner(signKeyPath)
		if err != nil {
			return err
		}
		env, err := readEnvelope(cmd, args[0])
		if err != nil {
			return err
		}
		if err := envelope.Sign(env, key); err != nil {
			return err
		}
		return writeEnvelope(cmd, env)
	},
}

var envelopeVerifyCmd = &cobra.Command{
	Use:   "verify <envelope-file|->",
	Short: "Verify an envelope",
	Long:  `Check an envelope's structure, payload checksum, expiry, signatures and type consistency.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := readEnvelope(cmd, args[0])
		if err != nil {
			return err
		}
		if err := envelope.Verify(env); err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"id":        env.Header.ID,
			"type":      env.Header.Type,
			"network":   env.Meta.Network,
			"signers":   env.Signers(),
			"encrypted": env.Payload.Encrypted,
			"valid":     true,
		})
	},
}

var envelopeOpenCmd = &cobra.Command{
	Use:   "open <envelope-file|->",
	Short: "Verify an envelope and write out its payload",
	Long: `Verify an envelope and write the decoded payload to --out (default stdout).

Encrypted payloads are unsealed with the passphrase in ` + sealPassphraseEnv + `.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := readEnvelope(cmd, args[0])
		if err != nil {
			return err
		}
		if err := envelope.Verify(env); err != nil {
			return err
		}

		raw, err := env.Payload.Bytes()
		if err != nil {
			return err
		}
		if env.Payload.Encrypted {
			raw, err = sealer.Open(os.Getenv(sealPassphraseEnv), raw)
			if errors.Is(err, sealer.ErrAuthFailed) {
				return fmt.Errorf("failed to unseal payload: wrong passphrase or corrupted data")
			}
			if err != nil {
				return fmt.Errorf("failed to unseal payload: %w", err)
			}
		}

		if openOut == "" {
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		}
		if err := os.WriteFile(openOut, raw, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", openOut, err)
		}
		return nil
	},
}

func readEnvelope(cmd *cobra.Command, path string) (*envelope.Envelope, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	return envelope.Decode(data)
}

func writeEnvelope(cmd *cobra.Command, env *envelope.Envelope) error {
	data, err := envelope.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func init() {
	f := envelopeWrapCmd.Flags()
	f.StringVar(&wrapType, "type", "", "Package type: transaction, message, asset or multi [required]")
	f.StringVar(&wrapID, "id", "", "Envelope id (default: a new UUID)")
	f.StringVar(&wrapSender, "sender", "", "Sender address (default: the --key address)")
	f.StringVar(&wrapRecipient, "recipient", "", "Recipient address [required]")
	f.StringVar(&wrapEncoding, "encoding", string(envelope.EncodingBase64), "Payload text encoding: base64 or hex")
	f.DurationVar(&wrapExpiresIn, "expires-in", 0, "Reject the envelope after this long (default: never)")
	f.IntVar(&wrapRetries, "retries", -1, "Retry hint for the relay (default: not set)")
	f.StringArrayVar(&wrapTags, "tag", nil, "Tag (repeatable)")
	f.BoolVar(&wrapSeal, "seal", false, "Encrypt the payload with the passphrase in "+sealPassphraseEnv)
	f.StringVar(&wrapKeyPath, "key", "", "Sign the envelope with this key file")
	_ = envelopeWrapCmd.MarkFlagRequired("type")
	_ = envelopeWrapCmd.MarkFlagRequired("recipient")

	envelopeSignCmd.Flags().StringVar(&signKeyPath, "key", "", "Signer key file [required]")
	_ = envelopeSignCmd.MarkFlagRequired("key")

	envelopeOpenCmd.Flags().StringVarP(&openOut, "out", "o", "", "Write the payload to this file")

	envelopeCmd.AddCommand(envelopeWrapCmd, envelopeSignCmd, envelopeVerifyCmd, envelopeOpenCmd)
	rootCmd.AddCommand(envelopeCmd)
}
