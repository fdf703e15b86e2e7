// Package main runs a single price-tracking pass and prints the run summary
// as JSON. Intended to be invoked by an external periodic scheduler.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"travel-price-watch/internal/app"
	"travel-price-watch/internal/config"
	"travel-price-watch/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	envFile := flag.String("env-file", ".env", "optional .env file loaded before configuration")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configPath, *envFile)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, conf, logger)
	if err != nil {
		logger.Fatal("failed to build engine",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer a.Close()

	summary, err := a.Coordinator.Run(ctx)
	if err != nil {
		logger.Error("run failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		a.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Error("failed to write summary", zap.String("op", "main"), zap.Error(err))
	}
}
