package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bantay-pod/api"
	"bantay-pod/config"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

// Run boots the whole service: config, database, migrations, HTTP server
// and background workers. It blocks until SIGINT/SIGTERM and then shuts
// down within the configured timeout.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := utils.NewLogger()

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		return err
	}

	composition, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, composition.serverDeps, logger)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	for _, worker := range composition.workers {
		if err := worker.Start(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	for _, worker := range composition.workers {
		worker.Stop()
	}
	return httpServer.Shutdown(shutdownCtx)
}
