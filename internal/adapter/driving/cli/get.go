package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// credentialJSON is the --json shape of one revealed credential.
type credentialJSON struct {
	ID        int64     `json:"id"`
	Service   string    `json:"service"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGetCommand(a *app) *cobra.Command {
	var (
		service    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the credentials stored for a service",
		Long: `Decrypt and print every credential stored under a service name.

Examples:
  credvault get --service github
  credvault get --service github --json | jq -r '.[0].password'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vault, err := a.backend.Vault(cmd.Context())
			if err != nil {
				return err
			}

			creds, err := vault.Lookup(cmd.Context(), service)
			if err != nil {
				if errors.Is(err, model.ErrAuthenticationFailed) {
					return fmt.Errorf("%w: the vault key does not match or the record was modified", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				rows := make([]credentialJSON, 0, len(creds))
				for _, c := range creds {
					rows = append(rows, credentialJSON{
						ID:        c.ID,
						Service:   c.ServiceName,
						Username:  c.Username,
						Password:  c.Password,
						CreatedAt: c.CreatedAt,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(creds) == 0 {
				fmt.Fprintf(out, "No credentials stored for %s\n", highlightStyle.Sprint(service))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tPASSWORD\tCREATED")
			for _, c := range creds {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Username, c.Password, c.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", "", "Service name (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("service")

	return cmd
}
