package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/database"
	"github.com/easyexithomes/leadmatch/internal/importer"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
	"github.com/easyexithomes/leadmatch/pkg/config"
)

func main() {
	file := flag.String("file", "", "CSV export to import")
	entity := flag.String("entity", "leads", "what the file contains: leads or buyers")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *entity != "leads" && *entity != "buyers" {
		log.Fatalf("unknown entity %q: expected leads or buyers", *entity)
	}

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

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		appLog.Fatal("Failed to run migrations", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		appLog.Fatal("Failed to open CSV", err, "file", *file)
	}
	defer f.Close()

	// Buyer imports drop the server's cached pool
	var buyerCache *cache.BuyerCache
	if cfg.HasRedis() {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		buyerCache = cache.NewBuyerCache(client, cfg.BuyerCacheTTL)
	}

	svcs := services.NewServices(repository.NewRepositories(db.DB), buyerCache, cfg, appLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary *importer.Summary
	if *entity == "buyers" {
		summary, err = svcs.Import.ImportBuyersCSV(ctx, f)
	} else {
		summary, err = svcs.Import.ImportLeadsCSV(ctx, f)
	}
	if err != nil {
		appLog.Fatal("Import failed", err, "file", *file, "entity", *entity)
	}

	printSummary(*entity, summary)
}

func printSummary(entity string, summary *importer.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Imported %s", entity))
	t.AppendHeader(table.Row{"Inserted", "Skipped", "Errors", "Total"})
	t.AppendRow(table.Row{summary.Inserted, summary.Skipped, summary.Errors, summary.Total()})
	t.Render()

	if len(summary.RowErrors) == 0 {
		return
	}

	errs := table.NewWriter()
	errs.SetOutputMirror(os.Stdout)
	errs.AppendHeader(table.Row{"Stage", "Row", "Key", "Error"})
	for _, rowErr := range summary.RowErrors {
		errs.AppendRow(table.Row{rowErr.Stage, rowErr.Row, rowErr.Key, rowErr.Message})
	}
	errs.Render()
}
