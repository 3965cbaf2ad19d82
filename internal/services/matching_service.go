package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/easyexithomes/leadmatch/internal/cache"
	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/matching"
	"github.com/easyexithomes/leadmatch/internal/metrics"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

// matchingServiceImpl implements MatchingService
type matchingServiceImpl struct {
	repos        *repository.Repositories
	cache        *cache.BuyerCache
	engine       *matching.Engine
	defaultLimit int
	logger       logger.Logger
}

// newMatchingService creates a new matching service implementation
func newMatchingService(repos *repository.Repositories, buyerCache *cache.BuyerCache, engine *matching.Engine, defaultLimit int, log logger.Logger) MatchingService {
	if engine == nil {
		engine = matching.NewDefaultEngine()
	}
	return &matchingServiceImpl{
		repos:        repos,
		cache:        buyerCache,
		engine:       engine,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// RankBuyers ranks the buyer pool for a stored lead. A negative limit
// returns every eligible buyer; zero applies the configured default.
func (s *matchingServiceImpl) RankBuyers(ctx context.Context, leadID string, limit int) ([]matching.MatchResult, error) {
	start := time.Now()

	lead, buyers, err := s.load(ctx, leadID, "RankBuyers")
	if err != nil {
		return nil, err
	}

	if limit == 0 {
		limit = s.defaultLimit
	}
	ranked := s.engine.RankBuyers(*lead, buyers, limit)

	metrics.RankingDuration.Observe(time.Since(start).Seconds())
	metrics.RankedBuyers.Observe(float64(len(ranked)))
	s.logger.Debug("Ranked buyers for lead", "lead_id", lead.ID, "pool_size", len(buyers), "matches", len(ranked))

	return ranked, nil
}

// MatchStatistics summarizes the full, untruncated ranking for a stored lead
func (s *matchingServiceImpl) MatchStatistics(ctx context.Context, leadID string) (*matching.Stats, error) {
	lead, buyers, err := s.load(ctx, leadID, "MatchStatistics")
	if err != nil {
		return nil, err
	}

	stats := s.engine.MatchStatistics(*lead, buyers)
	return &stats, nil
}

// BuyerPool returns the full buyer collection, from the cache when it holds a snapshot.
// Cache failures fall back to the store and are only logged.
func (s *matchingServiceImpl) BuyerPool(ctx context.Context) ([]models.Buyer, error) {
	buyers, hit, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		metrics.BuyerCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		s.logger.Warn("Buyer cache read failed, loading from database", "error", err.Error())
	case hit:
		metrics.BuyerCacheRequests.WithLabelValues(metrics.CacheHit).Inc()
		return buyers, nil
	default:
		metrics.BuyerCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
	}

	buyers, err = s.repos.Buyers.GetAll(ctx, repository.BuyerFilters{})
	if err != nil {
		s.logger.Error("Failed to load buyer pool", err)
		return nil, errors.DatabaseError("failed to load buyers", err).WithOperation("BuyerPool")
	}

	if err := s.cache.Set(ctx, buyers); err != nil {
		s.logger.Warn("Buyer cache write failed", "error", err.Error())
	}

	return buyers, nil
}

// load reads the lead and the buyer pool concurrently
func (s *matchingServiceImpl) load(ctx context.Context, leadID, operation string) (*models.Lead, []models.Buyer, error) {
	id, err := uuid.Parse(leadID)
	if err != nil {
		return nil, nil, errors.InvalidInput("invalid lead ID", err).WithOperation(operation)
	}

	var (
		lead   *models.Lead
		buyers []models.Buyer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lead, err = s.repos.Leads.GetByID(gctx, id)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return errors.NotFound("lead not found", err).WithOperation(operation)
			}
			return errors.DatabaseError("failed to get lead", err).WithOperation(operation)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		buyers, err = s.BuyerPool(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lead, buyers, nil
}
