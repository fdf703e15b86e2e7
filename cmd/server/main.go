// Package main provides the long-running tracker server:
// - Scheduler (cron): one engine run per tick, overlapping ticks skipped
// - HTTP: /health, /metrics, /status, POST /run
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"travel-price-watch/internal/app"
	"travel-price-watch/internal/config"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/scheduler"
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

	if err := run(conf, logger); err != nil {
		logger.Fatal("server error", zap.String("op", "main"), zap.Error(err))
	}
	logger.Info("shutdown complete", zap.String("op", "main"))
}

func run(conf *config.Configuration, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, conf, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer a.Close()

	sched, err := scheduler.New(scheduler.Options{
		Spec:     conf.Schedule.Cron,
		Timezone: conf.Schedule.Timezone,
		Job:      a.Coordinator.Run,
		Metrics:  a.Metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              conf.Server.Address,
		Handler:           app.NewHandler(sched, a.Registry, time.Now()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown",
			zap.String("op", "main.run"),
			zap.String("signal", sig.String()),
		)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Error("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("op", "main.run"), zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sched.Start(ctx)
	if conf.Schedule.RunOnStart {
		go sched.Trigger(ctx)
	}

	select {
	case <-ctx.Done():
	case err = <-serverErr:
		cancel()
	}

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http shutdown", zap.String("op", "main.run"), zap.Error(shutdownErr))
	}

	close(done)
	return err
}
