// Command server runs the portfolio API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables. The database is migrated and seeded on
// start, and SIGINT or SIGTERM triggers a graceful shutdown.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
