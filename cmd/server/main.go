// Package main is the entry point for the dsn-service server.
//
// The main package is kept minimal — its job is to:
// 1. Create the logger
// 2. Load configuration (.env + environment)
// 3. Build and start the server
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, internal/service, ...). This separation makes the app
// testable and its components reusable.
package main

import (
	"log/slog"
	"os"

	"github.com/mkowalczyk/dsn-service/internal/config"
	"github.com/mkowalczyk/dsn-service/internal/server"
)

func main() {
	// Structured logging via slog. Text output for the terminal; in
	// production you'd switch to slog.NewJSONHandler and LevelInfo.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := config.Load(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
