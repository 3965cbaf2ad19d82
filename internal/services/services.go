package services

import (
	"context"
	"io"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/importer"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/matching"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/pkg/config"
)

// Services contains all application services
type Services struct {
	Matching   MatchingService
	Assignment AssignmentService
	Leads      LeadService
	Buyers     BuyerService
	Import     ImportService
	Export     *LeadExportService
}

// MatchingService ranks the buyer pool against stored leads
type MatchingService interface {
	RankBuyers(ctx context.Context, leadID string, limit int) ([]matching.MatchResult, error)
	MatchStatistics(ctx context.Context, leadID string) (*matching.Stats, error)
	BuyerPool(ctx context.Context) ([]models.Buyer, error)
}

// AssignmentService records a lead's hand-off to a buyer
type AssignmentService interface {
	AssignLeadToBuyer(ctx context.Context, leadID, buyerID string) (*AssignmentResult, error)
}

// LeadService defines the interface for lead business logic
type LeadService interface {
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	List(ctx context.Context, filters repository.LeadFilters) ([]models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	UpdateStage(ctx context.Context, id, stage string) (*models.Lead, error)
	Stats(ctx context.Context) (*PipelineStats, error)
}

// BuyerService defines the interface for buyer business logic
type BuyerService interface {
	GetByID(ctx context.Context, id string) (*models.Buyer, error)
	List(ctx context.Context, filters repository.BuyerFilters) ([]models.Buyer, error)
	Create(ctx context.Context, buyer *models.Buyer) error
	Update(ctx context.Context, buyer *models.Buyer) error
	BackfillTiers(ctx context.Context) (int, error)
}

// ImportService loads CSV exports through the duplicate-safe importer
type ImportService interface {
	ImportLeads(ctx context.Context, candidates []models.Lead) (*importer.Summary, error)
	ImportLeadsCSV(ctx context.Context, r io.Reader) (*importer.Summary, error)
	ImportBuyersCSV(ctx context.Context, r io.Reader) (*importer.Summary, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(repos *repository.Repositories, buyerCache *cache.BuyerCache, cfg *config.Config, log logger.Logger) *Services {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Services{
		Matching:   newMatchingService(repos, buyerCache, matching.NewEngine(cfg.MatchPolicy()), cfg.DefaultMatchLimit, log),
		Assignment: newAssignmentService(repos, AssignmentOptions{OfferRatio: cfg.OfferRatio, Atomic: cfg.AtomicAssignment}, log),
		Leads:      newLeadService(repos, log),
		Buyers:     newBuyerService(repos, buyerCache, cfg.PhoneDefaultRegion, log),
		Import: newImportService(repos, buyerCache, importer.BuyerCSVOptions{
			MaxRows:           cfg.ImportMaxRows,
			PhoneRegion:       cfg.PhoneDefaultRegion,
			MultiMarketMarker: cfg.MultiMarketMarker,
		}, log),
		Export: NewLeadExportService(repos),
	}
}
