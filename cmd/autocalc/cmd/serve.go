package cmd

import (
	"autocalc-bot/internal/bot"
	"autocalc-bot/internal/config"
	"autocalc-bot/internal/storage"
	"autocalc-bot/pkg/logger"
	"autocalc-bot/pkg/redis"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Connects to Redis and PostgreSQL, applies pending migrations, seeds the
default fee table on first start and polls Telegram for updates until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zapLogger, err := logger.New(logLevel(cfg.LogLevel), cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	if err := redisClient.WaitReady(ctx, zapLogger); err != nil {
		zapLogger.Error("Redis is not available", zap.Error(err))
		return err
	}

	db, err := storage.Connect(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Error("Failed to connect to PostgreSQL", zap.Error(err))
		return err
	}

	pgStorage := storage.NewPostgresStorage(db, redisClient, storage.Options{
		Location: cfg.Location(),
		CacheTTL: cfg.RateCacheTTL,
	}, zapLogger)
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
		zapLogger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	defaults, err := storage.LoadDefaultFees(cfg.FeesFile)
	if err != nil {
		zapLogger.Error("Failed to load default fees",
			zap.String("path", cfg.FeesFile),
			zap.Error(err))
		return err
	}
	if err := pgStorage.SeedDefaultFees(ctx, defaults); err != nil {
		zapLogger.Error("Failed to seed default fees", zap.Error(err))
		return err
	}

	tgBot, err := bot.New(
		cfg.TelegramToken,
		bot.NewStateStorage(redisClient, cfg.SessionTTL),
		pgStorage,
		bot.Options{
			Debug:      cfg.TelegramDebug,
			AdminIDs:   cfg.AdminIDs,
			ReportsDir: cfg.ReportsDir,
		},
		zapLogger,
	)
	if err != nil {
		zapLogger.Error("Failed to create bot", zap.Error(err))
		return err
	}

	if err := tgBot.Start(ctx); err != nil {
		return fmt.Errorf("bot stopped with error: %w", err)
	}

	zapLogger.Info("Bot shutdown gracefully")
	return nil
}
