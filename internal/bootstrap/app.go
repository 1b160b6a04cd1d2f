package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/solarinfra/internal/infra/config"
)

// Watcher keeps a configuration source fresh until ctx is done.
type Watcher interface {
	Watch(ctx context.Context) error
}

// Seeder installs starter data into empty stores.
type Seeder interface {
	Seed(ctx context.Context) (int, error)
}

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	tunables Watcher
	catalog  Seeder
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, tunables Watcher, catalog Seeder) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		tunables: tunables,
		catalog:  catalog,
	}
}

// Run seeds the catalogue, starts the tunables watcher and the HTTP server, and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.catalog != nil {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		created, err := a.catalog.Seed(seedCtx)
		cancel()
		if err != nil {
			return err
		}
		if created > 0 {
			a.logger.Info("starter catalogue installed", "products", created)
		}
	}
	if a.tunables != nil {
		if err := a.tunables.Watch(ctx); err != nil {
			a.logger.Warn("tunables hot reload disabled", "error", err)
		}
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
