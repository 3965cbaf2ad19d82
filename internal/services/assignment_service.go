package services

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/metrics"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

// DefaultOfferRatio is the share of the list price offered to the buyer
const DefaultOfferRatio = 0.70

// AssignmentOptions configures the assignment recorder
type AssignmentOptions struct {
	OfferRatio float64
	// Atomic runs the lead update and deal insert in one transaction.
	// When false a failed deal insert leaves the lead assigned and the
	// result is flagged for follow-up.
	Atomic bool
}

// AssignmentResult reports the outcome of an assignment
type AssignmentResult struct {
	LeadID        uuid.UUID  `json:"lead_id"`
	BuyerID       uuid.UUID  `json:"buyer_id"`
	Success       bool       `json:"success"`
	DealID        *uuid.UUID `json:"deal_id,omitempty"`
	DealCreated   bool       `json:"deal_created"`
	NeedsFollowUp bool       `json:"needs_follow_up"`
	DealError     string     `json:"deal_error,omitempty"`
	AssignedAt    time.Time  `json:"assigned_at"`
}

// assignmentServiceImpl implements AssignmentService
type assignmentServiceImpl struct {
	repos   *repository.Repositories
	options AssignmentOptions
	logger  logger.Logger
	now     func() time.Time
}

// newAssignmentService creates a new assignment service implementation
func newAssignmentService(repos *repository.Repositories, options AssignmentOptions, log logger.Logger) *assignmentServiceImpl {
	if options.OfferRatio <= 0 || options.OfferRatio > 1 {
		options.OfferRatio = DefaultOfferRatio
	}
	return &assignmentServiceImpl{
		repos:   repos,
		options: options,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AssignLeadToBuyer marks the lead assigned to the buyer and records the deal.
// Re-assigning a lead overwrites the previous buyer and cancels that buyer's
// open deal.
func (s *assignmentServiceImpl) AssignLeadToBuyer(ctx context.Context, leadID, buyerID string) (*AssignmentResult, error) {
	const op = "AssignLeadToBuyer"

	lid, err := uuid.Parse(leadID)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		return nil, errors.InvalidInput("invalid lead ID", err).WithOperation(op)
	}
	bid, err := uuid.Parse(buyerID)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		return nil, errors.InvalidInput("invalid buyer ID", err).WithOperation(op)
	}

	if s.options.Atomic {
		return s.assignAtomic(ctx, lid, bid)
	}
	return s.assign(ctx, lid, bid)
}

// assign performs the two writes independently. Only a failed lead update is fatal.
func (s *assignmentServiceImpl) assign(ctx context.Context, leadID, buyerID uuid.UUID) (*AssignmentResult, error) {
	lead, buyer, err := s.loadParties(ctx, s.repos, leadID, buyerID)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}

	now := s.now()
	if err := s.markAssigned(ctx, s.repos, leadID, buyerID, now); err != nil {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Error("Failed to assign lead", err, "lead_id", leadID, "buyer_id", buyerID)
		return nil, err
	}

	result := &AssignmentResult{
		LeadID:     leadID,
		BuyerID:    buyerID,
		Success:    true,
		AssignedAt: now,
	}

	if err := s.cancelPrior(ctx, s.repos.Deals, lead, buyerID); err != nil {
		result.NeedsFollowUp = true
		s.logger.Warn("Previous buyer's deal was not cancelled",
			"lead_id", leadID,
			"previous_buyer_id", *lead.AssignedBuyerID,
			"error", err.Error(),
		)
	}

	deal, created, err := s.recordDeal(ctx, s.repos.Deals, lead, buyer, now, false)
	if err != nil {
		result.NeedsFollowUp = true
		result.DealError = err.Error()
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomePartial).Inc()
		s.logger.Warn("Lead assigned but deal was not recorded",
			"lead_id", leadID,
			"buyer_id", buyerID,
			"error", err.Error(),
		)
		return result, nil
	}

	s.complete(result, deal, created)
	return result, nil
}

// assignAtomic performs both writes in one transaction
func (s *assignmentServiceImpl) assignAtomic(ctx context.Context, leadID, buyerID uuid.UUID) (*AssignmentResult, error) {
	const op = "AssignLeadToBuyer"

	now := s.now()
	var (
		deal    *models.Deal
		created bool
	)

	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		lead, buyer, err := s.loadParties(ctx, repos, leadID, buyerID)
		if err != nil {
			return err
		}
		if err := s.markAssigned(ctx, repos, leadID, buyerID, now); err != nil {
			return err
		}
		if err := s.cancelPrior(ctx, repos.Deals, lead, buyerID); err != nil {
			return errors.DatabaseError("failed to cancel previous deal", err).WithOperation(op)
		}
		deal, created, err = s.recordDeal(ctx, repos.Deals, lead, buyer, now, true)
		if err != nil {
			if _, ok := errors.As(err); ok {
				return err
			}
			return errors.DatabaseError("failed to record deal", err).WithOperation(op)
		}
		return nil
	})
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Error("Assignment transaction rolled back", err, "lead_id", leadID, "buyer_id", buyerID)
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.DatabaseError("assignment transaction failed", err).WithOperation(op)
	}

	result := &AssignmentResult{
		LeadID:     leadID,
		BuyerID:    buyerID,
		Success:    true,
		AssignedAt: now,
	}
	s.complete(result, deal, created)
	return result, nil
}

func (s *assignmentServiceImpl) complete(result *AssignmentResult, deal *models.Deal, created bool) {
	result.DealID = &deal.ID
	result.DealCreated = created

	outcome := metrics.OutcomeAssigned
	if !created {
		outcome = metrics.OutcomeDealReused
	}
	metrics.AssignmentsTotal.WithLabelValues(outcome).Inc()

	s.logger.Info("Lead assigned",
		"lead_id", result.LeadID,
		"buyer_id", result.BuyerID,
		"deal_id", deal.ID,
		"deal_created", created,
	)
}

func (s *assignmentServiceImpl) loadParties(ctx context.Context, repos *repository.Repositories, leadID, buyerID uuid.UUID) (*models.Lead, *models.Buyer, error) {
	const op = "AssignLeadToBuyer"

	lead, err := repos.Leads.GetByID(ctx, leadID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil, errors.NotFound("lead not found", err).WithOperation(op)
		}
		return nil, nil, errors.DatabaseError("failed to get lead", err).WithOperation(op)
	}

	buyer, err := repos.Buyers.GetByID(ctx, buyerID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil, errors.NotFound("buyer not found", err).WithOperation(op)
		}
		return nil, nil, errors.DatabaseError("failed to get buyer", err).WithOperation(op)
	}

	return lead, buyer, nil
}

func (s *assignmentServiceImpl) markAssigned(ctx context.Context, repos *repository.Repositories, leadID, buyerID uuid.UUID, at time.Time) error {
	status := models.LeadStatusAssigned
	patch := models.LeadPatch{
		Status:          &status,
		AssignedBuyerID: &buyerID,
		AssignmentDate:  &at,
	}

	if err := repos.Leads.Update(ctx, leadID, patch); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("lead not found", err).WithOperation("AssignLeadToBuyer")
		}
		return errors.DatabaseError("failed to update lead", err).WithOperation("AssignLeadToBuyer")
	}
	return nil
}

// cancelPrior cancels the open deal of the buyer the lead is being taken from.
// Deals already under contract or closed are left alone.
func (s *assignmentServiceImpl) cancelPrior(ctx context.Context, deals repository.DealRepository, lead *models.Lead, buyerID uuid.UUID) error {
	if lead.AssignedBuyerID == nil || *lead.AssignedBuyerID == buyerID {
		return nil
	}

	prior, err := deals.FindByLeadAndBuyer(ctx, lead.ID, *lead.AssignedBuyerID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if prior.Status != models.DealStatusAssigned {
		return nil
	}
	return deals.UpdateStatus(ctx, prior.ID, models.DealStatusCancelled)
}

// recordDeal returns the existing deal for the pair or inserts a new one.
// A reused cancelled deal is reopened. The boolean is true when a deal was
// inserted.
func (s *assignmentServiceImpl) recordDeal(ctx context.Context, deals repository.DealRepository, lead *models.Lead, buyer *models.Buyer, at time.Time, inTx bool) (*models.Deal, bool, error) {
	existing, err := deals.FindByLeadAndBuyer(ctx, lead.ID, buyer.ID)
	if err == nil {
		if existing.Status == models.DealStatusCancelled {
			if err := deals.UpdateStatus(ctx, existing.ID, models.DealStatusAssigned); err != nil {
				return nil, false, err
			}
			existing.Status = models.DealStatusAssigned
		}
		return existing, false, nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	deal := s.buildDeal(lead, buyer, at)
	if err := deals.Create(ctx, deal); err != nil {
		if !stderrors.Is(err, repository.ErrDuplicate) {
			return nil, false, err
		}
		// The failed insert aborts a postgres transaction, so the winner's
		// row cannot be read back in it.
		if inTx {
			return nil, false, errors.Unavailable("deal recorded concurrently, retry the assignment", err).
				WithOperation("AssignLeadToBuyer")
		}
		existing, findErr := deals.FindByLeadAndBuyer(ctx, lead.ID, buyer.ID)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}

	return deal, true, nil
}

func (s *assignmentServiceImpl) buildDeal(lead *models.Lead, buyer *models.Buyer, at time.Time) *models.Deal {
	deal := &models.Deal{
		LeadID:          lead.ID,
		BuyerID:         buyer.ID,
		PropertyAddress: lead.Address,
		Market:          lead.Market,
		Status:          models.DealStatusAssigned,
		AssignmentDate:  at,
	}

	if value := lead.ValueEstimate(); value != nil {
		listPrice := *value
		offerPrice := OfferPrice(listPrice, s.options.OfferRatio)
		deal.ListPrice = &listPrice
		deal.OfferPrice = &offerPrice
	}

	return deal
}

// OfferPrice applies the offer ratio to a list price, rounded to cents
func OfferPrice(listPrice, ratio float64) float64 {
	return math.Round(listPrice*ratio*100) / 100
}
