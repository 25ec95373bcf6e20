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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/config"
	"github.com/kailas-cloud/courserec/internal/db"
	dbRedis "github.com/kailas-cloud/courserec/internal/db/redis"
	logpkg "github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
	courserepo "github.com/kailas-cloud/courserec/internal/repository/course"
	chiTransport "github.com/kailas-cloud/courserec/internal/transport/chi"
	"github.com/kailas-cloud/courserec/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	"github.com/kailas-cloud/courserec/internal/usecase/recommend"
	"github.com/kailas-cloud/courserec/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting courserec API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterRecommendMetrics()

	// Repositories
	courseRepo := courserepo.New(store, cfg.Storage.KeyPrefix)
	catalogReader := courserepo.NewBreakerReader(courseRepo, courserepo.BreakerConfig{
		Name:             "catalog",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval(),
		Timeout:          cfg.Breaker.Timeout(),
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}, logger)

	// Use cases
	catalogSvc := catalog.New(courseRepo).WithMaxImportSize(cfg.Catalog.MaxImportSize)
	recommendSvc := recommend.New(catalogReader, recommend.Options{
		Limit:           cfg.Recommend.Limit,
		MinCategoryPool: cfg.Recommend.MinCategoryPool,
	}, logger)
	healthSvc := healthuc.New(store, catalogReader).WithTimeout(cfg.Health.CheckTimeout())

	logger.Info("Ranking configured",
		zap.Int("limit", recommendSvc.Options().Limit),
		zap.Int("min_category_pool", recommendSvc.Options().MinCategoryPool),
	)

	server := chiTransport.NewServer(catalogSvc, recommendSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: paramErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore connects to the configured driver. Redis and Valkey share the rueidis store.
func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey", "redis":
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
