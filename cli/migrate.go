package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/keepsake/config"
	"github.com/cppla/keepsake/models"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update database tables",
		Args:         cobra.NoArgs,
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
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.DBDriver)
			return nil
		},
	}
}
