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

	"github.com/fantasysports/season-core/internal/app"
	"github.com/fantasysports/season-core/internal/config"
	"github.com/fantasysports/season-core/internal/platform/logging"
)

// zapLevelFromSlog maps config.Config.LogLevel (slog's scale, where
// Info is 0 and each step is 4) onto zapcore's scale (Info is 0, each
// step is 1); the two packages disagree on granularity so a threshold
// comparison is needed rather than a direct cast.
func zapLevelFromSlog(level slog.Level) logging.Level {
	switch {
	case level <= slog.LevelDebug:
		return logging.LevelDebug
	case level <= slog.LevelInfo:
		return logging.LevelInfo
	case level <= slog.LevelWarn:
		return logging.LevelWarn
	default:
		return logging.LevelError
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(zapLevelFromSlog(cfg.LogLevel))
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	automatorDone := make(chan struct{})
	go func() {
		defer close(automatorDone)
		a.Run(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a.Router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	a.Stop()
	<-automatorDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	if err := a.Close(); err != nil {
		logger.Error("resource cleanup failed", "error", err)
	}

	logger.Info("http server stopped")
}
