// Package main is the entry point for the vocapp HTTP server.
//
// The main package stays minimal. Its job is to:
// 1. Read configuration (config file named by VOCAPP_CONFIG, then env vars)
// 2. Create dependencies (logger, document store)
// 3. Start the server
//
// All actual logic lives in internal/. `vocapp serve` does the same thing
// with flags.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/vocapp/internal/config"
	"github.com/sakif/vocapp/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load(os.Getenv("VOCAPP_CONFIG"))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Log levels (from least to most severe): Debug → Info → Warn → Error.
	// LOG_LEVEL or log_level in the config file picks the minimum.
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 3. OPEN THE DOCUMENT STORE ===
	ctx := context.Background()
	store, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open document store",
			slog.String("driver", cfg.Store.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
