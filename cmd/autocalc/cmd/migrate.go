package cmd

import (
	"autocalc-bot/internal/config"
	"autocalc-bot/internal/storage"
	"autocalc-bot/pkg/logger"
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), storage.RunMigrations)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), storage.RollbackMigration)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the migration status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), storage.Status)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// withDatabase needs only the DB_* settings, so migrations can run before
// the bot token or Redis are configured.
func withDatabase(ctx context.Context, run func(context.Context, *sql.DB, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	zapLogger, err := logger.New(logLevel("info"), "console")
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := storage.Connect(ctx, *dbCfg, zapLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	return run(ctx, db.DB, zapLogger)
}
