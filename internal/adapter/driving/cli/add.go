package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func NewAddCommand(a *app) *cobra.Command {
	var (
		service       string
		username      string
		password      string
		passwordStdin bool
		policy        policyFlags
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a credential",
		Long: `Encrypt and store a credential for a service.

Without --password or --password-stdin a password is generated using the
policy flags and printed once after it is stored.

Examples:
  credvault add --service github --username alice
  credvault add --service github --username alice --length 24
  echo -n 'Tr0ub4dor&3' | credvault add --service github --username alice --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			given := cmd.Flags().Changed("password")
			if given && passwordStdin {
				return errors.New("--password and --password-stdin are mutually exclusive")
			}
			if (given || passwordStdin) && policy.changed(cmd) {
				return errors.New("password policy flags only apply to generated passwords")
			}
			if passwordStdin {
				p, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
				given = true
			}

			vault, err := a.backend.Vault(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if given {
				cred, err := vault.Add(cmd.Context(), service, username, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s credential %d for %s %s\n",
					successStyle.Sprint("Stored"), cred.ID, highlightStyle.Sprint(cred.ServiceName), mutedStyle.Sprint(cred.Username))
				return nil
			}

			cred, generated, err := vault.AddGenerated(cmd.Context(), service, username, policy.resolve(cmd, a.cfg.Password))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s credential %d for %s %s\n",
				successStyle.Sprint("Stored"), cred.ID, highlightStyle.Sprint(cred.ServiceName), mutedStyle.Sprint(cred.Username))
			fmt.Fprintf(out, "Password: %s\n", generated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", "", "Service name (required)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password to store (visible in shell history; prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	policy.register(cmd)
	_ = cmd.MarkFlagRequired("service")

	return cmd
}

// readPassword reads a single line from r, dropping the line terminator.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
