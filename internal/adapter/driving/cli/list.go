package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List services that have stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vault, err := a.backend.Vault(cmd.Context())
			if err != nil {
				return err
			}

			services, err := vault.Services(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(services) == 0 {
				fmt.Fprintln(out, "No credentials stored")
				return nil
			}
			for _, s := range services {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
}
