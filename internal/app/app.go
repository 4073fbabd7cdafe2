// Package app initializes and runs the user service: it loads
// configuration, sets up logging, selects the storage backend once at
// startup, wires the service and router, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/usersvc/internal/config"
	"github.com/patric-chuzhbe/usersvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usersvc/internal/db/postgresdb"
	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/logger"
	"github.com/patric-chuzhbe/usersvc/internal/models"
	"github.com/patric-chuzhbe/usersvc/internal/router"
	"github.com/patric-chuzhbe/usersvc/internal/service"
)

// App encapsulates the configuration, storage backend and HTTP handler of
// the running service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New builds the application. Any failure here (configuration, logger,
// backend initialization or migration) is fatal: the process must not
// begin accepting requests.
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(service.New(app.db))

	return app, nil
}

// Run starts the HTTP server and blocks until a shutdown signal or a
// server error. On shutdown the server drains for up to ten seconds and
// the storage backend is closed.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType() {
	case models.StorageTypeMemory:
		return memorystorage.New()

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN(),
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
			postgresdb.PoolSettings{
				MaxSize:     cfg.DBPoolMax,
				MinSize:     cfg.DBPoolMin,
				IdleTimeout: cfg.DBPoolIdleTimeout,
			},
		)
	}

	return nil, errors.New("unknown storage type")
}
