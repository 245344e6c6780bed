package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkpulse/internal/core/domain"
	"linkpulse/internal/core/services"
	"linkpulse/internal/infrastructure/middleware"
	"linkpulse/internal/infrastructure/mikrotik"
	"linkpulse/internal/infrastructure/monitoring"
	"linkpulse/internal/infrastructure/publisher"
	repositories "linkpulse/internal/infrastructure/repositories"
	"linkpulse/pkg/config"
	"linkpulse/pkg/logger"
	"linkpulse/pkg/retry"
	"linkpulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/linkpulse/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "linkpulse",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory (device directory + queue mappings).
	// Startup races against the databases coming up, so dial with backoff.
	var repoFactory *repositories.RepositoryFactory
	err = retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		repoFactory, err = repositories.NewRepositoryFactory(cfg, log)
		return err
	})
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	// Initialize the stream sink
	var redisClient *redis.Client
	err = retry.Do(context.Background(), retry.DefaultConfig(), func() error {
		redisClient, err = publisher.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			log,
		)
		return err
	})
	if err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}

	samplePublisher := publisher.NewRedisPublisher(
		redisClient,
		cfg.Redis.Stream,
		cfg.Redis.MaxStreamLen,
		log,
	)

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	// Initialize the device pool and poller
	pool := services.NewDevicePool(
		repoFactory.CreateDeviceDirectory(),
		repoFactory.CreateQueueMappingStore(),
		mikrotik.Factory(cfg.Poller.FetchTimeout, log),
		domain.Vendor(cfg.Poller.Vendor),
		collector,
		log,
	)

	poller := services.NewPoller(services.PollerConfig{
		Enabled:         cfg.Poller.Enabled,
		Interval:        cfg.PollInterval(),
		RefreshInterval: cfg.Poller.RefreshInterval,
		StatsEvery:      cfg.Poller.StatsEvery,
	}, pool, samplePublisher, collector, log)

	// Aggregate readiness over the external dependencies
	health := monitoring.NewHealthChecker()
	health.AddCheck("database", 2*time.Second, repoFactory.HealthCheck)
	health.AddCheck("redis", 2*time.Second, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// Configure Gin for the ops endpoints
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.NewOpsRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"state":     poller.State().String(),
			"devices":   pool.Size(),
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	// Readiness endpoint: verifies the back-office DB and Redis
	router.GET("/ready", func(c *gin.Context) {
		status := health.CheckAll(c.Request.Context())
		code := 200
		if status.Status != "ready" {
			code = 503
		}
		c.JSON(code, status)
	})

	// Per-device connection state for operators
	router.GET("/devices", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"devices":   pool.Health(),
			"timestamp": time.Now(),
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:    cfg.Monitoring.Address,
		Handler: router,
	}

	// Start ops server in goroutine
	go func() {
		log.Infof("Starting linkpulse ops server on %s", cfg.Monitoring.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("ops server failed", "error", err)
		}
	}()

	// Start the poller
	pollerDone := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(pollerDone)
	}()

	// Wait for shutdown signals or the poller exiting on its own
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-pollerDone:
		log.Info("poller exited")
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down linkpulse collector...")

	// Let the in-flight cycle finish, then tear down connections and sink
	poller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Monitoring.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during ops server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing ops server", "error", closeErr)
		}
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("linkpulse collector stopped")
}
