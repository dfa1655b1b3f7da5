package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

func NewDeleteCommand(a *app) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored credential by id",
		Long: `Delete one stored credential. Ids are shown by 'credvault get'.

Example:
  credvault delete --id 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vault, err := a.backend.Vault(cmd.Context())
			if err != nil {
				return err
			}

			if err := vault.Delete(cmd.Context(), id); err != nil {
				if errors.Is(err, driven.ErrNotFound) {
					return fmt.Errorf("no credential with id %d: %w", id, err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credential %d\n", successStyle.Sprint("Deleted"), id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "Credential id (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
