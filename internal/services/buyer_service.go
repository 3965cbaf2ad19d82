package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/importer"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/matching"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

// buyerServiceImpl implements BuyerService
type buyerServiceImpl struct {
	repos       *repository.Repositories
	cache       *cache.BuyerCache
	phoneRegion string
	logger      logger.Logger
}

// newBuyerService creates a new buyer service implementation
func newBuyerService(repos *repository.Repositories, buyerCache *cache.BuyerCache, phoneRegion string, log logger.Logger) BuyerService {
	return &buyerServiceImpl{
		repos:       repos,
		cache:       buyerCache,
		phoneRegion: phoneRegion,
		logger:      log,
	}
}

// GetByID retrieves a buyer by ID
func (s *buyerServiceImpl) GetByID(ctx context.Context, id string) (*models.Buyer, error) {
	buyerID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput("invalid buyer ID", err).WithOperation("GetBuyer")
	}

	buyer, err := s.repos.Buyers.GetByID(ctx, buyerID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("buyer not found", err).WithOperation("GetBuyer")
		}
		return nil, errors.DatabaseError("failed to get buyer", err).WithOperation("GetBuyer")
	}

	return buyer, nil
}

// List retrieves buyers with filters
func (s *buyerServiceImpl) List(ctx context.Context, filters repository.BuyerFilters) ([]models.Buyer, error) {
	buyers, err := s.repos.Buyers.GetAll(ctx, filters)
	if err != nil {
		return nil, errors.DatabaseError("failed to get buyers", err).WithOperation("ListBuyers")
	}
	return buyers, nil
}

// Create registers a new buyer
func (s *buyerServiceImpl) Create(ctx context.Context, buyer *models.Buyer) error {
	if err := s.normalize(buyer); err != nil {
		return err.WithOperation("CreateBuyer")
	}

	if err := s.repos.Buyers.Create(ctx, buyer); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return errors.Conflict("a buyer with this company name already exists", err).WithOperation("CreateBuyer")
		}
		return errors.DatabaseError("failed to create buyer", err).WithOperation("CreateBuyer")
	}

	s.invalidate(ctx)
	s.logger.Info("Buyer created", "buyer_id", buyer.ID, "company_name", buyer.CompanyName, "tier", buyer.Tier)
	return nil
}

// Update replaces an existing buyer's details
func (s *buyerServiceImpl) Update(ctx context.Context, buyer *models.Buyer) error {
	if buyer.ID == uuid.Nil {
		return errors.InvalidInput("buyer ID is required", nil).WithOperation("UpdateBuyer")
	}
	if err := s.normalize(buyer); err != nil {
		return err.WithOperation("UpdateBuyer")
	}

	if err := s.repos.Buyers.Update(ctx, buyer); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrNotFound):
			return errors.NotFound("buyer not found", err).WithOperation("UpdateBuyer")
		case stderrors.Is(err, repository.ErrDuplicate):
			return errors.Conflict("a buyer with this company name already exists", err).WithOperation("UpdateBuyer")
		default:
			return errors.DatabaseError("failed to update buyer", err).WithOperation("UpdateBuyer")
		}
	}

	s.invalidate(ctx)
	return nil
}

// BackfillTiers classifies every buyer whose tier was never set.
// It returns the number of buyers updated.
func (s *buyerServiceImpl) BackfillTiers(ctx context.Context) (int, error) {
	unclassified := 0
	buyers, err := s.repos.Buyers.GetAll(ctx, repository.BuyerFilters{Tier: &unclassified})
	if err != nil {
		return 0, errors.DatabaseError("failed to get unclassified buyers", err).WithOperation("BackfillTiers")
	}

	updated := 0
	for _, buyer := range buyers {
		tier := matching.ClassifyTier(buyer.NotesText())
		if err := s.repos.Buyers.UpdateTier(ctx, buyer.ID, int(tier)); err != nil {
			s.logger.Error("Failed to backfill buyer tier", err, "buyer_id", buyer.ID)
			if updated > 0 {
				s.invalidate(ctx)
			}
			return updated, errors.DatabaseError("failed to update buyer tier", err).WithOperation("BackfillTiers")
		}
		s.logger.Debug("Buyer tier backfilled", "buyer_id", buyer.ID, "tier", tier.Label())
		updated++
	}

	if updated > 0 {
		s.invalidate(ctx)
	}
	s.logger.Info("Buyer tier backfill finished", "updated", updated)
	return updated, nil
}

// normalize trims input, normalizes the phone and derives the tier from
// notes when no tier was given.
func (s *buyerServiceImpl) normalize(buyer *models.Buyer) *errors.AppError {
	buyer.CompanyName = strings.TrimSpace(buyer.CompanyName)
	if buyer.CompanyName == "" {
		return errors.InvalidInput("company name is required", nil)
	}
	if buyer.Tier < 0 || buyer.Tier > int(matching.Tier3) {
		return errors.InvalidInput("tier must be between 1 and 3", nil)
	}
	if buyer.ReliabilityScore != nil && (*buyer.ReliabilityScore < 0 || *buyer.ReliabilityScore > 10) {
		return errors.InvalidInput("reliability score must be between 0 and 10", nil)
	}

	if buyer.Phone != nil {
		phone := importer.NormalizePhone(*buyer.Phone, s.phoneRegion)
		buyer.Phone = &phone
	}
	if buyer.Tier == 0 {
		buyer.Tier = int(matching.ClassifyTier(buyer.NotesText()))
	}
	return nil
}

func (s *buyerServiceImpl) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate buyer cache", "error", err.Error())
	}
}
