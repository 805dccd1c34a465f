// ABOUTME: Main entry point for the Digests feed refresher
// ABOUTME: Loads configuration, starts scheduled refreshes and handles process signals

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"digests-refresher/infrastructure/logger/logrus"
	"digests-refresher/pkg/config"
	"digests-refresher/pkg/featureflags"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create logger
	logger, err := logrus.New(logrus.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	flags := featureflags.NewEnvManager("FEATURE_")
	logger.Info("Starting Digests refresher", map[string]interface{}{
		"feeds_file": cfg.Refresh.FeedsFile,
		"schedule":   cfg.Refresh.Schedule,
		"cache_type": cfg.Cache.Type,
		"notify":     cfg.Notify.Type,
		"flags":      flags.GetAllFlags(),
	})

	app, err := newApp(context.Background(), cfg, flags, logger)
	if err != nil {
		logger.Error("Failed to start refresher", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	serverErr := app.start()

	// SIGUSR1 suspends and SIGUSR2 resumes; SIGINT and SIGTERM shut down
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

wait:
	for {
		select {
		case sig := <-sigs:
			switch sig {
			case syscall.SIGUSR1:
				app.runner.Suspend()
				logger.Info("Refresher suspended", nil)
			case syscall.SIGUSR2:
				app.runner.Resume()
				logger.Info("Refresher resumed", nil)
			default:
				break wait
			}
		case err := <-serverErr:
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			break wait
		}
	}

	logger.Info("Shutting down refresher...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Refresh.ShutdownTimeout)
	defer cancel()

	if err := app.shutdown(ctx); err != nil {
		logger.Error("Refresher forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	logger.Info("Refresher stopped", nil)
}

func init() {
	// Print banner
	fmt.Print(`
  ____  _                 _         ____       __               _
 |  _ \(_) __ _  ___  ___| |_ ___  |  _ \ ___ / _|_ __ ___  ___| |__   ___ _ __
 | | | | |/ _' |/ _ \/ __| __/ __| | |_) / _ \ |_| '__/ _ \/ __| '_ \ / _ \ '__|
 | |_| | | (_| |  __/\__ \ |_\__ \ |  _ <  __/  _| | |  __/\__ \ | | |  __/ |
 |____/|_|\__, |\___||___/\__|___/ |_| \_\___|_| |_|  \___||___/_| |_|\___|_|
          |___/
`, "\n")
}
