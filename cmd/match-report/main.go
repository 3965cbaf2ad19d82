package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/database"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
	"github.com/easyexithomes/leadmatch/pkg/config"
)

func main() {
	leadID := flag.String("lead", "", "lead ID to rank buyers for")
	limit := flag.Int("limit", 0, "maximum buyers to list (0 uses MATCH_DEFAULT_LIMIT, -1 lists all)")
	flag.Parse()

	if *leadID == "" {
		flag.Usage()
		os.Exit(2)
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

	var buyerCache *cache.BuyerCache
	if cfg.HasRedis() {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		buyerCache = cache.NewBuyerCache(client, cfg.BuyerCacheTTL)
	}

	svcs := services.NewServices(repository.NewRepositories(db.DB), buyerCache, cfg, appLog)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lead, err := svcs.Leads.GetByID(ctx, *leadID)
	if err != nil {
		appLog.Fatal("Failed to load lead", err, "lead_id", *leadID)
	}

	matches, err := svcs.Matching.RankBuyers(ctx, *leadID, *limit)
	if err != nil {
		appLog.Fatal("Failed to rank buyers", err, "lead_id", *leadID)
	}
	stats, err := svcs.Matching.MatchStatistics(ctx, *leadID)
	if err != nil {
		appLog.Fatal("Failed to compute match statistics", err, "lead_id", *leadID)
	}

	market := lead.MarketName()
	if market == "" {
		market = "(no market)"
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%s | %s", lead.Address, market))
	t.AppendHeader(table.Row{"#", "Buyer", "Tier", "Score", "Market", "Phone", "Email"})
	for i, match := range matches {
		marketCol := "-"
		if match.MarketMatch {
			marketCol = "yes"
		}
		t.AppendRow(table.Row{i + 1, match.CompanyName, match.TierLabel, match.MatchScore, marketCol, deref(match.Phone), deref(match.Email)})
	}
	t.AppendFooter(table.Row{"", "Total matches", stats.TotalMatches,
		fmt.Sprintf("T1 %d / T2 %d / T3 %d", stats.Tier1Count, stats.Tier2Count, stats.Tier3Count)})
	t.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
