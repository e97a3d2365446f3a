// Package main is the entry point for the RTO API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtoflow/internal/app"
	"rtoflow/internal/config"
	v1 "rtoflow/internal/infrastructure/http/v1"
	"rtoflow/internal/infrastructure/http/v1/dto"
	"rtoflow/internal/infrastructure/metrics"
	"rtoflow/internal/infrastructure/storage/postgres"
	"rtoflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// run returns instead of exiting so its deferred cleanup (Kafka flush, pool close) always runs.
	if err := run(cfg, log); err != nil {
		log.Errorw("server exited with error", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting rto server", "env", cfg.App.Env, "workers", cfg.RTO.Workers)

	// --- Saga runtime ---
	rt, err := app.NewRuntime(cfg, app.Options{ProcessCollectors: true})
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warnw("runtime close", "error", err)
		}
	}()

	routerCfg := v1.RouterConfig{
		Logger:   log,
		Runner:   rt.Runner,
		Defaults: dto.ReturnDefaults{Reason: cfg.RTO.DefaultReason, Note: cfg.RTO.DefaultNote},
		Metrics:  rt.Metrics,
		Gatherer: rt.Registry,
		Debug:    cfg.App.Development(),
	}

	// --- Optional database for idempotency keys ---
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		rt.Registry.MustRegister(metrics.NewPoolCollector(func() metrics.PoolStats {
			return metrics.PoolStats(pool.Stats())
		}))

		routerCfg.DB = pool
		routerCfg.IdempotencyStore = postgres.NewIdempotencyStore(pool, cfg.Database.IdempotencyTTL)
		log.Info("idempotency store enabled")
	} else {
		log.Warn("DATABASE_URL not set, X-Idempotency-Key is ignored")
	}

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	// A batch of a few hundred orders runs inside one request, so writes get a long deadline.
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	log.Info("shutting down server...")

	// Jobs already started are detached from the request; give them time to reach a terminal state.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
