// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/config"
	"github.com/javajoker/catalog-api/internal/database"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/logging"
	"github.com/javajoker/catalog-api/internal/router"
	"github.com/javajoker/catalog-api/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.Logging)

	shutdownTracing, err := telemetry.Setup(cfg.Tracing)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize tracing")
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}
	if err := database.SeedInitialData(db, cfg.Admin); err != nil {
		logrus.WithError(err).Fatal("Failed to seed initial data")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	store, closeStore := newCacheStore(cfg)
	defer closeStore()
	cacheManager := cache.NewManager(store, cfg.Cache.Timeout)

	throttles, err := router.NewThrottles(cfg.Throttle)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure throttling")
	}
	defer throttles.Close()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(db, cfg, cacheManager, throttles)

	var handler http.Handler = r
	if cfg.Tracing.Enabled {
		handler = telemetry.Handler(r, cfg.Tracing.ServiceName)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to flush traces")
	}

	logrus.Info("Server exited")
}

// newCacheStore builds the configured cache backend. A Redis backend that
// cannot be reached at startup is fatal; later failures only cost cache hits.
func newCacheStore(cfg *config.Config) (cache.Store, func()) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryStore(cache.MemoryConfig{
			Capacity:  cfg.Cache.Capacity,
			NumShards: cfg.Cache.NumShards,
			MaxTTL:    maxDuration(cfg.Cache.ProductListTTL, cfg.Cache.OrderListTTL),
		}), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Redis.Addr()).Fatal("Failed to connect to Redis")
	}

	logrus.WithField("addr", cfg.Redis.Addr()).Info("Using Redis cache backend")
	return cache.NewRedisStore(client, "catalog"), func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing Redis client")
		}
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
