package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewGenerateCommand(a *app) *cobra.Command {
	var policy policyFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random password",
		Long: `Generate a random password and print it to stdout without storing it.

Lowercase letters are always used. Uppercase letters, digits and symbols are
added according to the flags, which default to the configured policy.

Examples:
  credvault generate
  credvault generate --length 32 --symbols=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.backend.Generator().Generate(policy.resolve(cmd, a.cfg.Password))
			if err != nil {
				return fmt.Errorf("generate password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), password)
			return nil
		},
	}

	policy.register(cmd)
	return cmd
}
