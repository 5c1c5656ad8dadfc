package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/keepsake/utils"
)

// NewHashSecretCommand creates the hash-secret command, which prints a bcrypt
// hash suitable for AdminSecret.
func NewHashSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "hash-secret <secret>",
		Short:        "Print a bcrypt hash for the admin secret",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := utils.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
