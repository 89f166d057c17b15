package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hupe1980/bleater/config"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/platform/server"
	"github.com/hupe1980/bleater/platform/store"
)

const shutdownTimeout = 5 * time.Second

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewPostgresStore(ctx, cfg.DatabaseURL)
}

func serve(ctx context.Context, cfg config.Config, logger logging.Logger) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("server.store.close_error", "error", err.Error())
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.New(st, func(o *server.Options) { o.Logger = logger }),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listen", "addr", srv.Addr, "postgres", cfg.DatabaseURL != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("server.shutdown")
	return srv.Shutdown(shutdownCtx)
}
