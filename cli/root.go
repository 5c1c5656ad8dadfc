package cli

import (
	"github.com/spf13/cobra"

	"github.com/cppla/keepsake/config"
	"github.com/cppla/keepsake/utils"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the keepsake binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keepsake",
		Short: "Keepsake - daily visits, streaks and rotating content behind an access code",
		// Running without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath, "path to the JSON config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewHashSecretCommand())

	return cmd
}

// loadConfig reads configuration and initializes the global logger.
func loadConfig(opts *RootOptions) (config.AppConfig, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if err := utils.InitLogger(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
