package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-med-remind/internal/config"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/handler"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/metrics"
)

const shutdownTimeout = 30 * time.Second

func serve(ctx context.Context, cfg *config.Config) error {
	obs, err := initObservability(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown observability", "error", err)
		}
	}()

	meter := obs.Metrics().Meter()

	schedulerMetrics, err := metrics.NewSchedulerMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create scheduler metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create http metrics: %w", err)
	}

	svc, err := newService(ctx, cfg, schedulerMetrics)
	if err != nil {
		return err
	}
	defer svc.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	errCh := make(chan error, 4)

	wg.Add(3)

	go func() {
		defer wg.Done()

		if err := svc.runBackend(runCtx); err != nil {
			errCh <- fmt.Errorf("notification backend stopped: %w", err)
		}
	}()

	go func() {
		defer wg.Done()

		svc.scheduler.Run(runCtx)
	}()

	go func() {
		defer wg.Done()

		if err := svc.loop.Run(runCtx); err != nil {
			errCh <- fmt.Errorf("reconciliation loop stopped: %w", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      setupRouter(handler.NewReminderHandler(svc.useCase), httpMetrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("starting server", "address", cfg.Server.Address())

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case runErr = <-errCh:
		slog.Error("component failed, shutting down", "error", runErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("server forced to shutdown: %w", err))
	}

	cancel()
	wg.Wait()

	slog.Info("server exited properly")

	return runErr
}
