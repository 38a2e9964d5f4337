package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"simeval/internal/config"
	"simeval/internal/executor"
	"simeval/internal/models"
)

func main() {
	// A local .env is a convenience for development runs; the scoring
	// harness injects the variable directly.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, err := config.FromEnv(config.EnvVar)
	if err != nil {
		logger.Error("loading run parameters", "error", err)
		os.Exit(1)
	}
	logger.Info("parameters loaded", "parameters", cfg.String())

	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()

	go func() {
		sig := <-sigChan
		logger.Info("interrupt received, shutting down gracefully...", "signal", sig)
		cancel()
	}()

	result, err := executor.RunFromConfig(ctx, cfg, logger)
	if err != nil {
		if models.IsClass(err, models.FailureRemoteAbort) {
			// Wait before exiting so the aborting peer's own error is
			// observed by the external monitor before ours.
			logger.Error("a remote peer has aborted; waiting before exiting", "error", err, "grace", cfg.AbortGrace())
			time.Sleep(cfg.AbortGrace())
		}
		logger.Error("run failed", "class", models.ClassOf(err), "error", err)
		os.Exit(1)
	}

	// Print summary
	fmt.Printf("\nRun: %s\n", result.RunID)
	fmt.Printf("Episodes: %d\n", result.Episodes)
	fmt.Printf("Passed: %v\n", result.Passed)
	fmt.Printf("Duration: %.2fs\n", result.TotalDurationSec)

	keys := make([]string, 0, len(result.Aggregates))
	for k := range result.Aggregates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %.4f\n", k, result.Aggregates[k])
	}
}
