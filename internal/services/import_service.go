package services

import (
	"context"
	"io"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/importer"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

// importServiceImpl implements ImportService
type importServiceImpl struct {
	repos      *repository.Repositories
	cache      *cache.BuyerCache
	buyerOpts  importer.BuyerCSVOptions
	leadImport *importer.Importer[models.Lead]
	buyImport  *importer.Importer[models.Buyer]
	logger     logger.Logger
}

// newImportService creates a new import service implementation
func newImportService(repos *repository.Repositories, buyerCache *cache.BuyerCache, buyerOpts importer.BuyerCSVOptions, log logger.Logger) ImportService {
	return &importServiceImpl{
		repos:     repos,
		cache:     buyerCache,
		buyerOpts: buyerOpts,
		leadImport: importer.New("leads",
			func(l *models.Lead) *string { return &l.Address },
			repos.Leads.ExistsByAddress,
			repos.Leads.Create,
			log,
		),
		buyImport: importer.New("buyers",
			func(b *models.Buyer) *string { return &b.CompanyName },
			repos.Buyers.ExistsByCompanyName,
			repos.Buyers.Create,
			log,
		),
		logger: log,
	}
}

// ImportLeads inserts lead candidates whose address is not yet stored
func (s *importServiceImpl) ImportLeads(ctx context.Context, candidates []models.Lead) (*importer.Summary, error) {
	summary, err := s.leadImport.Run(ctx, candidates)
	if err != nil {
		return &summary, errors.ServiceError("lead import interrupted", err).WithOperation("ImportLeads")
	}
	return &summary, nil
}

// ImportLeadsCSV parses a processed lead export and imports every valid row
func (s *importServiceImpl) ImportLeadsCSV(ctx context.Context, r io.Reader) (*importer.Summary, error) {
	candidates, parseErrors, err := importer.ParseLeadCSV(r, s.buyerOpts.MaxRows)
	if err != nil {
		return nil, errors.InvalidInput("failed to parse lead CSV", err).WithOperation("ImportLeadsCSV")
	}

	summary, err := s.ImportLeads(ctx, candidates)
	summary.AddRowErrors(parseErrors)
	return summary, err
}

// ImportBuyersCSV parses a buyer-sourcing export and imports every valid row
func (s *importServiceImpl) ImportBuyersCSV(ctx context.Context, r io.Reader) (*importer.Summary, error) {
	candidates, parseErrors, err := importer.ParseBuyerCSV(r, s.buyerOpts)
	if err != nil {
		return nil, errors.InvalidInput("failed to parse buyer CSV", err).WithOperation("ImportBuyersCSV")
	}

	summary, err := s.buyImport.Run(ctx, candidates)
	summary.AddRowErrors(parseErrors)

	if summary.Inserted > 0 {
		if cacheErr := s.cache.Invalidate(ctx); cacheErr != nil {
			s.logger.Warn("Failed to invalidate buyer cache", "error", cacheErr.Error())
		}
	}

	if err != nil {
		return &summary, errors.ServiceError("buyer import interrupted", err).WithOperation("ImportBuyersCSV")
	}
	return &summary, nil
}
