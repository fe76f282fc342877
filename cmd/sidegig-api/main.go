package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sidegig/internal/api"
	"sidegig/internal/config"
	"sidegig/internal/content"
	"sidegig/internal/game"
	"sidegig/internal/save"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadEnvFile()
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.SlogLevel(cfg.LogLevel)}))

	store, err := save.Open(ctx, save.Options{
		SQLitePath:  cfg.SavePath,
		DatabaseURL: cfg.DatabaseURL,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("open save store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := game.NewEngine(content.Catalog(), logger)
	if cfg.RandomSeed != 0 {
		engine.Seed(cfg.RandomSeed)
	}

	state, err := store.Load(ctx, cfg.SaveSlot)
	switch {
	case errors.Is(err, save.ErrNoSave):
		state = game.NewState()
		state.Money = cfg.StartMoney
		logger.Info("starting fresh game", "slot", cfg.SaveSlot, "money", cfg.StartMoney)
	case err != nil:
		logger.Error("load save", "slot", cfg.SaveSlot, "err", err)
		os.Exit(1)
	default:
		logger.Info("resumed save", "slot", cfg.SaveSlot, "day", state.CurrentDay())
	}
	engine.LoadState(state)

	persist := func(ctx context.Context) error {
		return store.Save(ctx, cfg.SaveSlot, engine.Snapshot())
	}

	server := api.New(cfg, logger, engine, persist)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.AutoEndDay {
		go func() {
			ticker := time.NewTicker(cfg.DayLength)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					summary := engine.EndDay()
					logger.Info("day advanced", "day", summary.Day, "new_offers", summary.NewOffers)
					if err := persist(ctx); err != nil {
						logger.Error("save after day end", "err", err)
					}
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(cfg.SaveEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := persist(ctx); err != nil {
					logger.Error("periodic save", "err", err)
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if err := store.Save(shutdownCtx, cfg.SaveSlot, engine.Snapshot()); err != nil {
			logger.Error("final save", "err", err)
		}
	}()

	logger.Info("sidegig api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
