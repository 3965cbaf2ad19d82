package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

func newAssignmentFixture(atomic bool) (*store, *assignmentServiceImpl, models.Lead, models.Buyer, models.Buyer) {
	s := newStore()
	lead := s.addLead(models.Lead{
		Address:        "123 Main St",
		Market:         strPtr("Birmingham, AL"),
		EstimatedValue: floatPtr(120000),
		ARV:            floatPtr(150000),
	})
	buyerA := s.addBuyer(models.Buyer{CompanyName: "Magic City Homes", Tier: 1})
	buyerB := s.addBuyer(models.Buyer{CompanyName: "Vulcan Offers", Tier: 2})

	svc := newAssignmentService(s.repositories(), AssignmentOptions{OfferRatio: 0.70, Atomic: atomic}, logger.NewNopLogger())
	return s, svc, lead, buyerA, buyerB
}

func TestAssignmentService_AssignCreatesDeal(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(false)

	result, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.DealCreated)
	assert.False(t, result.NeedsFollowUp)
	require.NotNil(t, result.DealID)

	stored := s.lead(lead.ID)
	assert.Equal(t, models.LeadStatusAssigned, stored.Status)
	require.NotNil(t, stored.AssignedBuyerID)
	assert.Equal(t, buyer.ID, *stored.AssignedBuyerID)
	require.NotNil(t, stored.AssignmentDate)
	assert.Equal(t, result.AssignedAt, *stored.AssignmentDate)

	require.Len(t, s.deals, 1)
	deal := s.deals[0]
	assert.Equal(t, *result.DealID, deal.ID)
	assert.Equal(t, models.DealStatusAssigned, deal.Status)
	assert.Equal(t, "123 Main St", deal.PropertyAddress)
	require.NotNil(t, deal.ListPrice)
	assert.Equal(t, 120000.0, *deal.ListPrice, "estimated value wins over ARV")
	require.NotNil(t, deal.OfferPrice)
	assert.Equal(t, 84000.0, *deal.OfferPrice)
}

func TestAssignmentService_ReassignmentOverwrites(t *testing.T) {
	tests := []struct {
		name   string
		atomic bool
	}{
		{"default", false},
		{"atomic", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc, lead, buyerA, buyerB := newAssignmentFixture(tt.atomic)
			ctx := context.Background()

			_, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerA.ID.String())
			require.NoError(t, err)
			result, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerB.ID.String())
			require.NoError(t, err)
			assert.False(t, result.NeedsFollowUp)

			stored := s.lead(lead.ID)
			require.NotNil(t, stored.AssignedBuyerID)
			assert.Equal(t, buyerB.ID, *stored.AssignedBuyerID)

			dealA, ok := s.deal(lead.ID, buyerA.ID)
			require.True(t, ok)
			assert.Equal(t, models.DealStatusCancelled, dealA.Status, "previous buyer's deal is cancelled")

			dealB, ok := s.deal(lead.ID, buyerB.ID)
			require.True(t, ok)
			assert.Equal(t, models.DealStatusAssigned, dealB.Status)
		})
	}
}

func TestAssignmentService_ReassignBackReopensDeal(t *testing.T) {
	s, svc, lead, buyerA, buyerB := newAssignmentFixture(false)
	ctx := context.Background()

	first, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerA.ID.String())
	require.NoError(t, err)
	_, err = svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerB.ID.String())
	require.NoError(t, err)
	back, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerA.ID.String())
	require.NoError(t, err)

	assert.False(t, back.DealCreated)
	assert.Equal(t, *first.DealID, *back.DealID)
	assert.Len(t, s.deals, 2)

	dealA, _ := s.deal(lead.ID, buyerA.ID)
	assert.Equal(t, models.DealStatusAssigned, dealA.Status)
	dealB, _ := s.deal(lead.ID, buyerB.ID)
	assert.Equal(t, models.DealStatusCancelled, dealB.Status)
}

func TestAssignmentService_ReassignKeepsAdvancedDeal(t *testing.T) {
	s, svc, lead, buyerA, buyerB := newAssignmentFixture(false)
	ctx := context.Background()

	_, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerA.ID.String())
	require.NoError(t, err)
	s.deals[0].Status = models.DealStatusUnderContract

	_, err = svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerB.ID.String())
	require.NoError(t, err)

	dealA, _ := s.deal(lead.ID, buyerA.ID)
	assert.Equal(t, models.DealStatusUnderContract, dealA.Status)
}

func TestAssignmentService_CancelPriorFails(t *testing.T) {
	tests := []struct {
		name   string
		atomic bool
	}{
		{"default mode flags follow-up", false},
		{"atomic mode rolls back", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc, lead, buyerA, buyerB := newAssignmentFixture(tt.atomic)
			ctx := context.Background()

			_, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerA.ID.String())
			require.NoError(t, err)
			s.failDealStatus = stderrors.New("deadlock detected")

			result, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyerB.ID.String())
			stored := s.lead(lead.ID)
			require.NotNil(t, stored.AssignedBuyerID)

			if tt.atomic {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeDatabaseError))
				assert.Equal(t, buyerA.ID, *stored.AssignedBuyerID)
				assert.Len(t, s.deals, 1)
				return
			}

			require.NoError(t, err)
			assert.True(t, result.NeedsFollowUp)
			assert.True(t, result.DealCreated)
			assert.Equal(t, buyerB.ID, *stored.AssignedBuyerID)
		})
	}
}

func TestAssignmentService_DealReused(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(false)
	ctx := context.Background()

	first, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyer.ID.String())
	require.NoError(t, err)
	second, err := svc.AssignLeadToBuyer(ctx, lead.ID.String(), buyer.ID.String())
	require.NoError(t, err)

	assert.False(t, second.DealCreated)
	assert.Equal(t, *first.DealID, *second.DealID)
	assert.Len(t, s.deals, 1)
}

func TestAssignmentService_PartialSuccess(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(false)
	s.failDealCreate = stderrors.New("deals table locked")

	result, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.NeedsFollowUp)
	assert.Contains(t, result.DealError, "deals table locked")
	assert.Nil(t, result.DealID)

	stored := s.lead(lead.ID)
	assert.Equal(t, models.LeadStatusAssigned, stored.Status, "lead stays assigned")
	assert.Empty(t, s.deals)
}

func TestAssignmentService_LeadUpdateFails(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(false)
	s.failLeadUpdate = stderrors.New("connection refused")

	result, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrCodeDatabaseError))
	assert.True(t, errors.Retryable(err))
	assert.Empty(t, s.deals, "no deal without an assigned lead")
}

func TestAssignmentService_AtomicRollsBack(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(true)
	s.failDealCreate = stderrors.New("deals table locked")

	result, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrCodeDatabaseError))

	stored := s.lead(lead.ID)
	assert.Equal(t, models.LeadStatusNew, stored.Status)
	assert.Nil(t, stored.AssignedBuyerID)
}

func TestAssignmentService_AtomicDuplicateIsRetryable(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(true)
	s.failDealCreate = fmt.Errorf("failed to create deal: %w", repository.ErrDuplicate)

	result, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, errors.ErrCodeUnavailable, errors.Code(err))
	assert.True(t, errors.Retryable(err))

	stored := s.lead(lead.ID)
	assert.Equal(t, models.LeadStatusNew, stored.Status, "lead update rolled back")
	assert.Nil(t, stored.AssignedBuyerID)
}

func TestAssignmentService_AtomicSuccess(t *testing.T) {
	s, svc, lead, buyer, _ := newAssignmentFixture(true)

	result, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.NoError(t, err)
	assert.True(t, result.DealCreated)
	assert.Len(t, s.deals, 1)
	assert.Equal(t, models.LeadStatusAssigned, s.lead(lead.ID).Status)
}

func TestAssignmentService_InvalidAndMissing(t *testing.T) {
	_, svc, lead, buyer, _ := newAssignmentFixture(false)
	ctx := context.Background()

	tests := []struct {
		name    string
		leadID  string
		buyerID string
		code    string
	}{
		{"malformed lead", "abc", buyer.ID.String(), errors.ErrCodeInvalidInput},
		{"malformed buyer", lead.ID.String(), "", errors.ErrCodeInvalidInput},
		{"unknown lead", uuid.NewString(), buyer.ID.String(), errors.ErrCodeNotFound},
		{"unknown buyer", lead.ID.String(), uuid.NewString(), errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AssignLeadToBuyer(ctx, tt.leadID, tt.buyerID)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.Code(err))
		})
	}
}

func TestAssignmentService_DealWithoutEstimate(t *testing.T) {
	s := newStore()
	lead := s.addLead(models.Lead{Address: "7 Vacant Lot"})
	buyer := s.addBuyer(models.Buyer{CompanyName: "Lot Buyers"})
	svc := newAssignmentService(s.repositories(), AssignmentOptions{}, logger.NewNopLogger())

	_, err := svc.AssignLeadToBuyer(context.Background(), lead.ID.String(), buyer.ID.String())
	require.NoError(t, err)
	require.Len(t, s.deals, 1)
	assert.Nil(t, s.deals[0].ListPrice)
	assert.Nil(t, s.deals[0].OfferPrice)
}

func TestOfferPrice(t *testing.T) {
	assert.Equal(t, 84000.0, OfferPrice(120000, 0.70))
	assert.Equal(t, 70.35, OfferPrice(100.5, 0.70))
	assert.Equal(t, 0.0, OfferPrice(0, 0.70))
}
