package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/keepsake/config"
	"github.com/cppla/keepsake/models"
	"github.com/cppla/keepsake/services"
	"github.com/cppla/keepsake/utils"
)

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision <code>...",
		Short: "Register one or more access codes",
		Long: `Register access codes directly in the database.

Codes are trimmed, lowercased and Unicode-normalized before they are stored.
Codes that already exist are reported and skipped.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			db, err := config.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db, &models.AccessRecord{}, &models.EngagementState{}); err != nil {
				return err
			}

			gate := services.NewGate(db, cfg.AdminSecret)
			failed := 0
			for _, code := range args {
				rec, err := gate.Provision(cmd.Context(), code)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "provisioned %s\n", rec.Code)
				case errors.Is(err, services.ErrAlreadyExists):
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: already exists\n", services.NormalizeCode(code))
				default:
					failed++
					utils.Sugar.Errorf("provision failed code=%q err=%v", code, err)
					fmt.Fprintf(cmd.ErrOrStderr(), "failed %q: %v\n", code, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d code(s) could not be provisioned", failed)
			}
			return nil
		},
	}
}
