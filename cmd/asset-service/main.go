package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/princekumarofficial/asset-service/docs"
	"github.com/princekumarofficial/asset-service/internal/cache"
	"github.com/princekumarofficial/asset-service/internal/config"
	assetHandlers "github.com/princekumarofficial/asset-service/internal/http/handlers/assets"
	wsHandlers "github.com/princekumarofficial/asset-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/asset-service/internal/http/middleware"
	"github.com/princekumarofficial/asset-service/internal/ingest"
	"github.com/princekumarofficial/asset-service/internal/metrics"
	"github.com/princekumarofficial/asset-service/internal/services/assets"
	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/storage/backend"
	wsClient "github.com/princekumarofficial/asset-service/internal/websocket"
)

// @title Image Asset Service API
// @version 1.0.0
// @description Upload, search, download and delete tagged image assets, and bulk-ingest CSV/zip batches.
// @BasePath /
func main() {
	// load config
	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// database setup
	store, err := backend.Open(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer store.Close()
	slog.Info("Connected to metadata store", slog.String("driver", cfg.Database.Driver))

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()

		store = cache.NewCacheService(store, redisClient)
		slog.Info("Redis cache enabled", slog.String("address", cfg.Redis.Address))
	}

	objects, err := media.NewBackend(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}
	slog.Info("Object storage ready", slog.Bool("local", !objects.Remote()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.New("asset_service", registry)
	if err != nil {
		log.Fatal("Failed to register metrics:", err)
	}

	service := assets.NewService(store, objects, collector)

	hub := wsClient.NewHub()
	go hub.Run(ctx)

	driver := ingest.Driver{
		Uploader:     service,
		Workers:      cfg.Ingest.Workers,
		ImagesSubdir: cfg.Ingest.ImagesSubdir,
		Observer:     collector,
	}
	handlers := assetHandlers.NewAssetHandlers(service, driver, hub, cfg.HTTPServer.MaxUploadBytes)

	var upload, bulkUpload http.Handler = handlers.Upload(), handlers.BulkUpload()
	if redisClient != nil {
		rlc := middleware.NewRateLimitConfig(redisClient, cfg.Ingest.UploadLimit)
		upload = rlc.RateLimitedHandler(middleware.ActionUpload, handlers.Upload())
		bulkUpload = rlc.RateLimitedHandler(middleware.ActionBulkUpload, handlers.BulkUpload())
	}

	// setup router
	router := http.NewServeMux()

	router.HandleFunc("GET /", assetHandlers.Root())
	router.HandleFunc("GET /api/health", assetHandlers.Health())
	router.Handle("POST /api/upload", upload)
	router.HandleFunc("GET /api/search", handlers.Search())
	router.HandleFunc("GET /api/assets/{id}", handlers.GetAsset())
	router.HandleFunc("DELETE /api/assets/{id}", handlers.DeleteAsset())
	router.HandleFunc("GET /api/download/{id}", handlers.Download())
	router.HandleFunc("GET /api/metadata/actions", handlers.Actions())
	router.Handle("POST /api/bulk-upload", bulkUpload)
	router.HandleFunc("GET /ws/batches/{id}", wsHandlers.BatchProgress(hub))
	router.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Handle("GET /docs/", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	server := http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
