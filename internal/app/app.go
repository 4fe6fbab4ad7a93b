package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/costcenter"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/employee"
	snapshotrepo "github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/snapshot"
	"github.com/shiftmirror/shiftmirror-backend/internal/adapter/postgres/unified"
	"github.com/shiftmirror/shiftmirror-backend/internal/config"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/identity"
	"github.com/shiftmirror/shiftmirror-backend/internal/service/snapshot"
	"github.com/shiftmirror/shiftmirror-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, initializes
// the logger, connects to the database, wires the services, and serves
// HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	employees := employee.New(pool)
	resolver := identity.NewService(logger, employees, unified.New(pool), costcenter.New(pool))
	snapshots := snapshot.NewService(
		logger,
		snapshotrepo.New(pool),
		resolver,
		employees,
		postgres.NewTxManager(pool),
		cfg.Snapshot,
	)

	router := rest.NewRouter(
		rest.NewHealthHandler(pool, BuildVersion()),
		rest.NewSnapshotHandler(snapshots, logger),
		logger,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
