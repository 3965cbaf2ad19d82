package main

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easyexithomes/leadmatch/internal/api"
	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/database"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/middleware"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
	"github.com/easyexithomes/leadmatch/pkg/config"
)

func main() {
	// Initialize configuration
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	appLog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer appLog.Sync()

	if err := cfg.RequireDatabase(); err != nil {
		appLog.Fatal("Invalid configuration", err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		appLog.Fatal("Failed to run migrations", err)
	}

	checks := []api.HealthCheck{{Name: "database", Check: db.HealthCheckContext}}

	// Buyer pool cache is optional
	var buyerCache *cache.BuyerCache
	if cfg.HasRedis() {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		buyerCache = cache.NewBuyerCache(client, cfg.BuyerCacheTTL)
		checks = append(checks, api.HealthCheck{Name: "cache", Check: buyerCache.Ping})
		appLog.Info("Buyer cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.BuyerCacheTTL.String())
	}

	repos := repository.NewRepositories(db.DB)
	svcs := services.NewServices(repos, buyerCache, cfg, appLog)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		appLog.Fatal("Invalid trusted proxies", err)
	}

	r.Use(middleware.LoggingMiddleware(appLog))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(cfg.RateLimitPerMinute))
	}
	r.Use(gin.Recovery())

	api.SetupRoutes(r, svcs, api.NewHealthHandler(checks...))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("Forced shutdown", err)
	}
}
