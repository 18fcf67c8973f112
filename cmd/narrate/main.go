package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/echoverse/narrate/pkg/logging"
	"github.com/echoverse/narrate/pkg/narrate"
	"github.com/echoverse/narrate/pkg/runner"
	"github.com/echoverse/narrate/pkg/transports/httpapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "narrate:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Missing .env is fine; config may carry literal values.
	_ = godotenv.Load()

	cfg, err := narrate.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)
	runner.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := narrate.NewService(ctx, cfg, narrate.DefaultRegistry(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("service close", slog.String("error", err.Error()))
		}
	}()

	api := httpapi.NewServer(svc, logging.NewComponentLogger(logger, "http"))
	logger.Info("starting narration service",
		slog.String("environment", cfg.Environment),
		slog.Int("providers", len(cfg.Providers)))

	return runner.Serve(ctx, cfg.Server.Addr, api.Handler(), 15*time.Second, logger)
}
