package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-measure-pipeline/internal/app"
	"go-measure-pipeline/internal/config"
	"go-measure-pipeline/internal/logger"
)

// @title Measurement Pipeline API
// @version 1.0
// @description Ingests measurement CSV files and serves per-file summaries.
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "Config file (default: pipeline.toml searched upward)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "pipeline-api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
		return err
	}
	defer logger.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}
