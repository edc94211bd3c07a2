// Package main is the entry point for the finance tracker Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/finance-bot/internal/apiclient"
	"gitlab.com/yelinaung/finance-bot/internal/bot"
	"gitlab.com/yelinaung/finance-bot/internal/config"
	"gitlab.com/yelinaung/finance-bot/internal/database"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/repository"
	"gitlab.com/yelinaung/finance-bot/internal/session"
	"gitlab.com/yelinaung/finance-bot/internal/telemetry"
)

const (
	// staleSessionAge is how long an untouched session snapshot is kept.
	staleSessionAge       = 30 * 24 * time.Hour
	sessionPersistTimeout = 2 * time.Second
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("finance-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	if cfg.LogJSON {
		logger.SetJSON()
	}
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelExporter, cfg.ServiceName)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	var storeOpts []session.StoreOption
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		sessions := repository.NewSessionRepository(pool)
		if n, err := sessions.DeleteStale(ctx, staleSessionAge); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to prune stale sessions")
		} else if n > 0 {
			logger.Log.Info().Int64("count", n).Msg("Pruned stale sessions")
		}

		storeOpts = append(storeOpts, session.WithPersister(sessions), session.WithPersistTimeout(sessionPersistTimeout))
		logger.Log.Info().Msg("Session persistence enabled")
	}

	backend := apiclient.NewClient(cfg.APIBaseURL, cfg.APITimeout, apiclient.WithToken(cfg.APIToken))

	telegramBot, err := bot.New(cfg, backend, session.NewStore(storeOpts...))
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)
}
