// Package main is the entry point for the RTO background worker.
// It expires idempotency keys left by the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"rtoflow/internal/config"
	"rtoflow/internal/infrastructure/storage/postgres"
	"rtoflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Errorw("worker exited with error", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log *logger.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required for the worker")
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting rto worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	worker := NewCleanupWorker(pool, postgres.NewIdempotencyStore(pool, cfg.Database.IdempotencyTTL), log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx, getInterval())
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
	return nil
}

// KeyCleaner deletes expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupWorker periodically expires idempotency keys and reports pool health.
type CleanupWorker struct {
	pool    *postgres.Pool
	cleaner KeyCleaner
	log     *logger.Logger
}

func NewCleanupWorker(pool *postgres.Pool, cleaner KeyCleaner, log *logger.Logger) *CleanupWorker {
	return &CleanupWorker{
		pool:    pool,
		cleaner: cleaner,
		log:     log.WithComponent("worker"),
	}
}

// Run cleans once at start and then on every tick until ctx is cancelled.
func (w *CleanupWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx)
			if w.pool != nil {
				w.pool.LogStats(ctx)
			}
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context) {
	removed, err := w.cleaner.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		}
		return
	}
	if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}
}

func getInterval() time.Duration {
	if value := os.Getenv("CLEANUP_INTERVAL"); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return time.Hour
}
