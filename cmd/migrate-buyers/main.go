// Command migrate-buyers applies pending schema migrations and stores a
// typed tier on every buyer that still relies on free-text notes.
package main

import (
	"context"
	"log"
	"time"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/database"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
	"github.com/easyexithomes/leadmatch/pkg/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}

	appLog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer appLog.Sync()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		appLog.Fatal("Failed to run migrations", err)
	}
	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Failed to read migration version", err)
	}
	appLog.Info("Schema up to date", "version", version, "dirty", dirty)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	var buyerCache *cache.BuyerCache
	if cfg.HasRedis() {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		buyerCache = cache.NewBuyerCache(client, cfg.BuyerCacheTTL)
	}

	svcs := services.NewServices(repository.NewRepositories(db.DB), buyerCache, cfg, appLog)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	updated, err := svcs.Buyers.BackfillTiers(ctx)
	if err != nil {
		appLog.Fatal("Tier backfill failed", err)
	}
	appLog.Info("Tier backfill complete", "buyers_updated", updated)
}
