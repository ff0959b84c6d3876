package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/config"
	"github.com/sakif/vocapp/internal/docstore"
	"github.com/sakif/vocapp/internal/docstore/postgres"
	"github.com/sakif/vocapp/internal/docstore/sqlite"
)

// OpenStore opens the document store named by cfg.Store.Driver. The caller
// owns the returned store and must Close it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		// Create the data directory on first run, like `mkdir -p`.
		if dir := filepath.Dir(cfg.Store.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("server: creating database directory %s: %w", dir, err)
			}
		}
		store, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("document store opened", slog.String("driver", cfg.Store.Driver), slog.String("path", cfg.Store.Path))
		return store, nil

	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("document store opened", slog.String("driver", cfg.Store.Driver))
		return store, nil

	case config.DriverMemory:
		logger.Warn("using the in-memory document store, data is lost on exit")
		return docstore.NewMemory(), nil
	}
	return nil, apperror.Configuration("store.driver", fmt.Sprintf("unknown store driver %q", cfg.Store.Driver))
}
