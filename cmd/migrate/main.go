package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/himanshukumarraut/Leave-It/internal/bootstrap"
	"github.com/himanshukumarraut/Leave-It/internal/shared/config"
	"github.com/himanshukumarraut/Leave-It/internal/shared/connection"
	"github.com/himanshukumarraut/Leave-It/internal/shared/migration"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the LeaveIt database schema",
	}

	root.AddCommand(
		newMigrationCmd("up", "Apply all pending migrations", migration.Up),
		newMigrationCmd("down", "Roll back the latest migration", migration.Down),
		newMigrationCmd("status", "Show migration status", migration.Status),
	)
	return root
}

func newMigrationCmd(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := bootstrap.NewLogger(cfg.IsProduction())
			if err != nil {
				log.Printf("init logger: %v", err)
				return err
			}
			defer logger.Sync()

			gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
			if err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := run(cmd.Context(), sqlDB); err != nil {
				logger.Error("migration failed", zap.String("command", use), zap.Error(err))
				return err
			}
			logger.Info("migration finished", zap.String("command", use))
			return nil
		},
	}
}
