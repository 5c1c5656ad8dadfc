package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/keepsake/config"
	"github.com/cppla/keepsake/content"
	"github.com/cppla/keepsake/models"
	"github.com/cppla/keepsake/routes"
	"github.com/cppla/keepsake/utils"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(opts *RootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db, &models.AccessRecord{}, &models.EngagementState{}); err != nil {
		return err
	}

	library, err := content.Load(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("content catalog: %w", err)
	}
	utils.Sugar.Infof("content loaded photos=%d messages=%d minigames=%d special_days=%d",
		len(library.Photos), len(library.Messages), len(library.Minigames), len(library.SpecialDays))

	rc := utils.NewRedis(cfg)
	r := routes.SetupRouter(routes.Deps{Config: cfg, DB: db, Redis: rc, Library: library})

	srv := utils.GraceServer(":"+cfg.AppPort, r)
	srv.OnShutdown(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rc != nil {
			_ = rc.Close()
		}
	})

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		utils.Sugar.Infof("Starting server on port %s with TLS (graceful)", cfg.AppPort)
		return srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	}
	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return srv.ListenAndServe()
}
