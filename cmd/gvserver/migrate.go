package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/gvserver/pkg/config"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage/postgres"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)

			db, err := postgres.Open(cmd.Context(), connectionConfig(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

func connectionConfig(cfg *config.Config) postgres.ConnectionConfig {
	return postgres.ConnectionConfig{
		URL:             cfg.Database.ConnectionString(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		AcquireTimeout:  cfg.Database.AcquireTimeout,
	}
}
