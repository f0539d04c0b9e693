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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"selfattend/internal/attendance"
	"selfattend/internal/config"
	"selfattend/internal/handler"
	"selfattend/internal/httpmiddleware"
	"selfattend/internal/logs"
	"selfattend/internal/queue"
	"selfattend/internal/session"
	"selfattend/internal/snapshot"
	"selfattend/internal/store"
)

func main() {
	cfg := config.Load()
	logger, err := logs.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	kv, err := store.Open(ctx, cfg.StoreBackend, cfg.StoreDSN())
	if err != nil {
		return err
	}
	defer kv.Close()
	logger.Info("attendance store ready", "backend", cfg.StoreBackend)

	repo := attendance.NewRepository(kv, loc, logger)

	opts := []session.Option{session.WithLogger(logger)}
	switch {
	case cfg.QueueBackend == "redis":
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		opts = append(opts, session.WithPublisher(queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)))
	case cfg.ExportDir != "":
		mem := queue.NewInMemory(64)
		go func() {
			_ = snapshot.NewExporter(repo, cfg.ExportDir, logger).Run(ctx, mem)
		}()
		opts = append(opts, session.WithPublisher(mem))
	}
	sessions := session.NewManager(cfg.SessionTTL, func() *session.Context {
		return session.New(repo, opts...)
	})
	go sessions.RunSweeper(ctx, time.Minute)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders(gin.Mode() == gin.ReleaseMode))
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware(httpmiddleware.ClientIP))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		_, err := kv.Get(c.Request.Context(), "healthz")
		healthy := err == nil || errors.Is(err, store.ErrNotFound)
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "store": healthy, "backend": cfg.StoreBackend})
	})

	handler.New(sessions, cfg.JWTSigningKey, cfg.JWTIssuer, logger).Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", "error", err)
	}
	logger.Info("server exited")
	return nil
}
