// The worker advances the game clock on a wall-time schedule. It drives the
// API over HTTP so the server stays the only writer of game state.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sidegig/internal/cli"
	"sidegig/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadEnvFile()
	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.SlogLevel(cfg.LogLevel)}))
	client := cli.NewClient(cfg.APIBaseURL)

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("SIDEGIG_WORKER_RUN_ONCE")), "true")
	if runOnce {
		summary, err := client.EndDay(ctx)
		if err != nil {
			logger.Error("end day failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "day", summary.Day, "new_offers", summary.NewOffers)
		return
	}

	ticker := time.NewTicker(cfg.DayLength)
	defer ticker.Stop()

	logger.Info("worker started", "day_length", cfg.DayLength.String(), "api", cfg.APIBaseURL)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			summary, err := client.EndDay(ctx)
			if err != nil {
				logger.Error("end day failed", "err", err)
				continue
			}
			logger.Info("day advanced", "day", summary.Day,
				"new_offers", summary.NewOffers, "expired", summary.Expired)
		}
	}
}
