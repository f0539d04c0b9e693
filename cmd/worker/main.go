package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"selfattend/internal/attendance"
	"selfattend/internal/config"
	"selfattend/internal/logs"
	"selfattend/internal/queue"
	"selfattend/internal/snapshot"
	"selfattend/internal/store"
)

// Worker consumes ledger events and rewrites each user's attendance.csv.
func main() {
	cfg := config.Load()
	logger, err := logs.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend != "redis" {
		logger.Error("worker needs QUEUE_BACKEND=redis; the memory queue is consumed inside the api")
		os.Exit(1)
	}
	if cfg.ExportDir == "" {
		logger.Error("EXPORT_DIR is required")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("timezone", "error", err)
		os.Exit(1)
	}
	kv, err := store.Open(ctx, cfg.StoreBackend, cfg.StoreDSN())
	if err != nil {
		logger.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable yet, consumer will keep retrying", "addr", cfg.RedisAddr)
	}
	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)

	repo := attendance.NewRepository(kv, loc, logger)
	exporter := snapshot.NewExporter(repo, cfg.ExportDir, logger)
	if err := exporter.Run(ctx, q); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
