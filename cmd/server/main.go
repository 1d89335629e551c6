// Package main is the entry point for the game exchange server.
//
// main stays minimal: read configuration, build the logger, make sure the
// data directory exists, and hand off to internal/server. All actual logic
// lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/game-exchange/internal/config"
	"github.com/sakif/game-exchange/internal/server"
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

	// The SQLite file lives under a directory that may not exist yet
	// (default: data/). ":memory:" has no directory to create.
	if cfg.DBPath != ":memory:" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Error("failed to create database directory",
					slog.String("dir", dir),
					slog.String("error", err.Error()),
				)
				os.Exit(1)
			}
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
