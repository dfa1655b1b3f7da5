package cli

import (
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// policyFlags binds the password policy flags. Flags the user did not set
// fall back to the configured policy.
type policyFlags struct {
	length  int
	upper   bool
	digits  bool
	symbols bool
}

func (p *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&p.length, "length", "l", model.DefaultPasswordLength, "Password length")
	cmd.Flags().BoolVar(&p.upper, "upper", true, "Include uppercase letters")
	cmd.Flags().BoolVar(&p.digits, "digits", true, "Include digits")
	cmd.Flags().BoolVar(&p.symbols, "symbols", true, "Include symbols (!@#$%^&*?)")
}

func (p *policyFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{"length", "upper", "digits", "symbols"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (p *policyFlags) resolve(cmd *cobra.Command, defaults model.PasswordPolicy) model.PasswordPolicy {
	policy := defaults
	if cmd.Flags().Changed("length") {
		policy.Length = p.length
	}
	if cmd.Flags().Changed("upper") {
		policy.Upper = p.upper
	}
	if cmd.Flags().Changed("digits") {
		policy.Digits = p.digits
	}
	if cmd.Flags().Changed("symbols") {
		policy.Symbols = p.symbols
	}
	return policy
}
