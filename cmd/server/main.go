package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ncaa-baseball/internal/cache"
	"ncaa-baseball/internal/config"
	"ncaa-baseball/internal/handlers"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/internal/services"
	"ncaa-baseball/internal/transform"
	"ncaa-baseball/pkg/database"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("ncaa-stats-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting stats API server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"cache":       cfg.Redis.Enabled(),
		"seasons":     fmt.Sprintf("%d-%d", cfg.Seasons.First, cfg.Seasons.Last),
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("ncaa_stats", nil)

	// Initialize database
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.Open(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to apply schema", logging.Fields{}, err)
	}

	// Initialize repository, optionally behind the Redis cache
	statsRepo := repository.NewStatsRepository(db, logger, metricsCollector)

	var source repository.StatsSource = statsRepo
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		store := cache.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			logger.Warn(ctx, "[STARTUP_CACHE_UNAVAILABLE] Redis unreachable, requests fall back to the database", logging.Fields{
				"addr":  cfg.Redis.Addr,
				"error": err.Error(),
			})
		}
		source = cache.NewStatsCache(statsRepo, store, cfg.Redis.TTL, logger, metricsCollector)
	}

	// Initialize services
	transformer := transform.NewTransformer(logger, metricsCollector)
	teamService := services.NewTeamService(statsRepo, source, transformer, cfg.Seasons, logger, metricsCollector)
	playerService := services.NewPlayerService(statsRepo, source, transformer, logger, metricsCollector)
	schoolService := services.NewSchoolService(statsRepo, logger, metricsCollector)

	// Initialize handlers
	statsHandler := handlers.NewStatsHandler(teamService, playerService, schoolService, statsRepo, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.CORS(cfg.Server.CORSOrigins))

	// Register routes
	statsHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
