package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

const (
	maxSessions          = 10000
	sessionSweepInterval = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel)

	app, err := cli.BuildApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to build application", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	sessions := cache.NewLRUCache[auth.Session](maxSessions, cfg.SessionTTL)
	caches := cache.NewManager(logger)
	caches.Register(sessions)
	caches.StartCleanup(sessionSweepInterval)
	defer caches.Stop()

	authSvc := auth.NewService(app.Backend.Store, sessions, app.Assistant.ResetSession, logger)

	deps := apphttp.Deps{
		Chat:      app.Assistant,
		Auth:      authSvc,
		Records:   app.Records,
		Ledger:    app.Backend.Store,
		RateLimit: cfg.RateLimitPerMinute,
		Logger:    logger,
	}
	if app.Backend.Ready != nil {
		deps.Ready = app.Backend.Ready
	}
	srv := apphttp.NewServer(":"+cfg.Port, deps)

	_, done := cli.GracefulShutdown(logger, shutdownTimeout, srv.Shutdown)

	logger.Info("Starting fintrack server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"rewrite", cfg.RewriteEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
