package cli

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credvault/internal/config"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

const keySize = 32

func NewInitKeyCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-key",
		Short: "Create a new random vault key",
		Long: `Create a new random 256-bit vault key.

With CREDVAULT_KEY_SOURCE=keyring the key is saved in the OS keyring. With the
env source it is printed hex-encoded for use as CREDVAULT_SECRET_KEY.

Credentials stored under a previous key can no longer be read once the key
is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch a.cfg.KeySource {
			case config.KeySourceEnv, config.KeySourceKeyring:
			default:
				return fmt.Errorf("init-key does not manage keys for the %s key source", a.cfg.KeySource)
			}

			key := make([]byte, keySize)
			if _, err := rand.Read(key); err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			defer memguard.WipeBytes(key)

			out := cmd.OutOrStdout()
			if a.cfg.KeySource == config.KeySourceEnv {
				fmt.Fprintf(out, "export CREDVAULT_SECRET_KEY=%s\n", hex.EncodeToString(key))
				return nil
			}

			store, err := a.backend.KeyStore()
			if err != nil {
				return err
			}
			if !force {
				existing, err := store.Key(cmd.Context())
				switch {
				case err == nil:
					memguard.WipeBytes(existing)
					return errors.New("a key already exists in the keyring; use --force to replace it")
				case !errors.Is(err, driven.ErrKeyNotFound):
					return fmt.Errorf("check existing key: %w", err)
				}
			}
			if err := store.Store(key); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s new vault key in the OS keyring for account %s\n",
				successStyle.Sprint("Stored"), highlightStyle.Sprint(a.cfg.KeyringAccount))
			if force {
				fmt.Fprintln(out, warningStyle.Sprint("Credentials sealed with the previous key can no longer be revealed."))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing keyring key")
	return cmd
}
