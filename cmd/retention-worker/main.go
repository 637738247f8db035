package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/asset-service/internal/config"
	"github.com/princekumarofficial/asset-service/internal/services/assets"
	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/storage/backend"
)

// Purger hard-deletes assets soft-deleted before a cutoff
type Purger interface {
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int, error)
}

type RetentionWorker struct {
	purger   Purger
	after    time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewRetentionWorker(purger Purger, after, interval time.Duration) *RetentionWorker {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &RetentionWorker{
		purger:   purger,
		after:    after,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

func (rw *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("Retention worker started",
		"interval", rw.interval.String(),
		"retain_for", rw.after.String())

	// Run once immediately on startup
	rw.purgeExpired(ctx)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("Retention worker shutting down")
			return
		case <-ticker.C:
			rw.purgeExpired(ctx)
		}
	}
}

func (rw *RetentionWorker) purgeExpired(ctx context.Context) int {
	startTime := time.Now()
	cutoff := rw.now().UTC().Add(-rw.after)

	rw.logger.Info("Starting soft-deleted asset purge", "cutoff", cutoff.Format(time.RFC3339))

	count, err := rw.purger.PurgeDeleted(ctx, cutoff)
	if err != nil {
		rw.logger.Error("Failed to purge soft-deleted assets",
			"error", err.Error(),
			"assets_purged", count,
			"duration_ms", time.Since(startTime).Milliseconds())
		return count
	}

	duration := time.Since(startTime)

	rw.logger.Info("Completed soft-deleted asset purge",
		"assets_purged", count,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
	return count
}

func main() {
	// Load config
	cfg := config.MustLoad()

	if cfg.Retention.After <= 0 {
		slog.Info("Retention disabled, nothing to do")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := backend.Open(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer store.Close()
	slog.Info("Connected to metadata store", slog.String("driver", cfg.Database.Driver))

	objects, err := media.NewBackend(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}

	worker := NewRetentionWorker(assets.NewService(store, objects, nil), cfg.Retention.After, cfg.Retention.Interval)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	worker.Start(ctx)

	slog.Info("Retention worker stopped")
}
