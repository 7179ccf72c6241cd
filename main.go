package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lynn4am/gatekeeper/internal/app"
	"github.com/lynn4am/gatekeeper/internal/config"
	"github.com/lynn4am/gatekeeper/internal/logger"
	"github.com/lynn4am/gatekeeper/internal/version"
)

func main() {
	vlog := log.New(log.Writer(), "", 0)
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	}
	version.PrintVersionInfo(false, vlog)

	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(buildLoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	slog.SetDefault(logInstance)

	styledLogger.Info("initialising", "version", version.Version, "pid", os.Getpid())

	cfg, err := config.Load(nil)
	if err != nil {
		logger.FatalWithLogger(logInstance, "failed to load configuration", "error", err)
	}

	application := app.New(cfg, logInstance, styledLogger, os.Getenv("GATEWAY_LISTEN_ADDR"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		styledLogger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := application.Start(ctx); err != nil {
		logger.FatalWithLogger(logInstance, "failed to start gateway", "error", err)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := application.Stop(stopCtx); err != nil {
		styledLogger.Error("error during shutdown", "error", err)
	}

	styledLogger.Info("gatekeeper has shut down")
}

// buildLoggerConfig reads logger tuning from the environment rather than
// from config.yaml; these are operational knobs an operator sets per
// deployment, not gateway domain config.
func buildLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      envOrDefault("GATEKEEPER_LOG_LEVEL", "info"),
		FileOutput: envBoolOrDefault("GATEKEEPER_FILE_OUTPUT", true),
		LogDir:     envOrDefault("GATEKEEPER_LOG_DIR", "./logs"),
		MaxSize:    envIntOrDefault("GATEKEEPER_LOG_MAX_SIZE", 100),
		MaxBackups: envIntOrDefault("GATEKEEPER_LOG_MAX_BACKUPS", 5),
		MaxAge:     envIntOrDefault("GATEKEEPER_LOG_MAX_AGE", 30),
		Theme:      envOrDefault("GATEKEEPER_THEME", "default"),
		PrettyLogs: envBoolOrDefault("GATEKEEPER_PRETTY_LOGS", true),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
