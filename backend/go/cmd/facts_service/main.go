package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"country_facts/backend/go/internal/config"
	"country_facts/backend/go/internal/database/redis"
	"country_facts/backend/go/internal/facts_service/api"
	"country_facts/backend/go/internal/facts_service/service"
	"country_facts/backend/go/internal/llm"
	"country_facts/backend/go/internal/models"
	httpserver "country_facts/backend/go/pkg/http"
	"country_facts/backend/go/pkg/logger"
	"country_facts/backend/go/pkg/ratelimiter"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level), cfg.Logger.Format)
	serviceLogger := logger.New(cfg.App.Name, "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factsService, err := service.Build(ctx, cfg, llm.NewClient, serviceLogger)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to build facts service")
	}
	defer func() {
		if err := factsService.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing model clients")
		}
	}()

	limiter, closeLimiter := newRateLimiter(ctx, cfg, serviceLogger)
	defer closeLimiter()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewAPI(factsService, serviceLogger), cfg.Middleware.CORS, limiter, serviceLogger)

	srv := httpserver.NewServer(cfg.Server, router, serviceLogger)
	if err := srv.Run(ctx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("HTTP server failed")
		return
	}
	serviceLogger.Info("Server gracefully stopped")
}

// newRateLimiter returns nil when rate limiting is disabled. A redis store
// that cannot be reached falls back to the in-memory limiter.
func newRateLimiter(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (ratelimiter.KeyedLimiter, func()) {
	rl := cfg.Middleware.RateLimiter
	if !rl.Enabled {
		return nil, func() {}
	}

	if rl.Store == "redis" {
		limiter, closeFn, err := newRedisLimiter(ctx, cfg)
		if err == nil {
			log.WithField("store", "redis").Info("Rate limiting enabled")
			return limiter, closeFn
		}
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrorTypeUnavailable}).Warn("Redis rate limiter unavailable, using in-memory limiter")
	}

	limiter, err := ratelimiter.NewPerClient(rl.Rate, rl.Capacity, rl.MaxClients)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create rate limiter")
	}
	log.WithField("store", "memory").Info("Rate limiting enabled")
	return limiter, func() {}
}

func newRedisLimiter(ctx context.Context, cfg *config.AppConfig) (ratelimiter.KeyedLimiter, func(), error) {
	rdb, err := redis.NewClient(ctx, &cfg.Databases.Redis)
	if err != nil {
		return nil, nil, err
	}
	rl := cfg.Middleware.RateLimiter
	limiter, err := ratelimiter.NewRedisWindow(rdb, cfg.App.Name+":ratelimit", rl.Limit, config.MustDuration(rl.Window))
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return limiter, func() { _ = rdb.Close() }, nil
}
