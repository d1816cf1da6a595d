package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"arive-prompt-bot/internal/config"
	"arive-prompt-bot/internal/handlers"
	"arive-prompt-bot/internal/logging"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
	"arive-prompt-bot/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireBot(); err != nil {
		panic(err)
	}

	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("bot stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	db, err := storage.Open(ctx, storage.Options{Path: cfg.DBPath, Logger: logger})
	if err != nil {
		return err
	}
	defer db.Close()

	tg, err := telegram.New(telegram.Options{
		Token: cfg.TelegramToken,
		HTTPClient: telegram.NewHTTPClient(telegram.TransportOptions{
			PreferIPv4: cfg.PreferIPv4,
			Timeout:    cfg.HTTPTimeout,
		}),
		Logger: logger,
		Debug:  cfg.Debug,
	})
	if err != nil {
		return err
	}

	states := state.NewStore(state.Options{
		Catalog:         cat,
		TTL:             cfg.SessionTTL,
		DefaultModel:    prompt.ModelID(cfg.DefaultModel),
		DefaultLanguage: prompt.Language(cfg.DefaultLanguage),
		Logger:          logger,
	})

	handler := handlers.New(handlers.Options{
		Telegram:       tg,
		Catalog:        cat,
		States:         states,
		Storage:        db,
		GachaPerMinute: cfg.GachaPerMinute,
		Logger:         logger,
	})

	logger.Info("bot started", "username", tg.Username(), "db", cfg.DBPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return states.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		return pollUpdates(gctx, cfg, logger, tg, handler)
	})
	return g.Wait()
}

func pollUpdates(ctx context.Context, cfg config.Config, logger *slog.Logger, tg *telegram.Client, handler *handlers.Handler) error {
	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	sem := make(chan struct{}, cfg.MaxConcurrent)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("updates channel closed")
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err, "update_id", update.UpdateID)
				}
			}(update)
		}
	}
}
