package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

// store is an in-memory backing for the fake repositories
type store struct {
	mu     sync.Mutex
	leads  map[uuid.UUID]models.Lead
	buyers map[uuid.UUID]models.Buyer
	deals  []models.Deal

	// order preserves insertion order for GetAll
	leadOrder  []uuid.UUID
	buyerOrder []uuid.UUID

	failLeadUpdate error
	failDealCreate error
	failDealStatus error
	buyerReads     int
}

func newStore() *store {
	return &store{
		leads:  make(map[uuid.UUID]models.Lead),
		buyers: make(map[uuid.UUID]models.Buyer),
	}
}

func (s *store) repositories() *repository.Repositories {
	repos := &repository.Repositories{
		Leads:  &fakeLeadRepository{s},
		Buyers: &fakeBuyerRepository{s},
		Deals:  &fakeDealRepository{s},
	}
	repos.Tx = &fakeTransactionManager{store: s, repos: repos}
	return repos
}

func (s *store) addLead(lead models.Lead) models.Lead {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	s.leads[lead.ID] = lead
	s.leadOrder = append(s.leadOrder, lead.ID)
	return lead
}

func (s *store) addBuyer(buyer models.Buyer) models.Buyer {
	if buyer.ID == uuid.Nil {
		buyer.ID = uuid.New()
	}
	s.buyers[buyer.ID] = buyer
	s.buyerOrder = append(s.buyerOrder, buyer.ID)
	return buyer
}

func (s *store) lead(id uuid.UUID) models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id]
}

type fakeLeadRepository struct{ s *store }

func (r *fakeLeadRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lead, ok := r.s.leads[id]
	if !ok {
		return nil, fmt.Errorf("lead %s: %w", id, repository.ErrNotFound)
	}
	return &lead, nil
}

func (r *fakeLeadRepository) ExistsByAddress(_ context.Context, address string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, lead := range r.s.leads {
		if lead.Address == address {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLeadRepository) Create(_ context.Context, lead *models.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.leads {
		if existing.Address == lead.Address {
			return fmt.Errorf("failed to create lead: %w", repository.ErrDuplicate)
		}
	}
	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	r.s.addLead(*lead)
	return nil
}

func (r *fakeLeadRepository) Update(_ context.Context, id uuid.UUID, patch models.LeadPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failLeadUpdate != nil {
		return r.s.failLeadUpdate
	}
	lead, ok := r.s.leads[id]
	if !ok {
		return fmt.Errorf("lead %s: %w", id, repository.ErrNotFound)
	}
	if patch.Status != nil {
		lead.Status = *patch.Status
	}
	if patch.AssignedBuyerID != nil {
		buyerID := *patch.AssignedBuyerID
		lead.AssignedBuyerID = &buyerID
	}
	if patch.AssignmentDate != nil {
		at := *patch.AssignmentDate
		lead.AssignmentDate = &at
	}
	if patch.Market != nil {
		lead.Market = patch.Market
	}
	if patch.EstimatedValue != nil {
		lead.EstimatedValue = patch.EstimatedValue
	}
	if patch.ViabilityScore != nil {
		lead.ViabilityScore = patch.ViabilityScore
	}
	lead.UpdatedAt = time.Now()
	r.s.leads[id] = lead
	return nil
}

func (r *fakeLeadRepository) GetAll(_ context.Context, filters repository.LeadFilters) ([]models.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	leads := []models.Lead{}
	for _, id := range r.s.leadOrder {
		lead := r.s.leads[id]
		if len(filters.Statuses) > 0 && !containsStatus(filters.Statuses, lead.Status) {
			continue
		}
		if filters.Market != "" && !strings.Contains(strings.ToLower(lead.MarketName()), strings.ToLower(filters.Market)) {
			continue
		}
		if filters.Assigned != nil && (lead.AssignedBuyerID != nil) != *filters.Assigned {
			continue
		}
		if filters.MinViability != nil && (lead.ViabilityScore == nil || *lead.ViabilityScore < *filters.MinViability) {
			continue
		}
		if filters.MaxViability != nil && (lead.ViabilityScore == nil || *lead.ViabilityScore > *filters.MaxViability) {
			continue
		}
		leads = append(leads, lead)
		if filters.Limit > 0 && len(leads) == filters.Limit {
			break
		}
	}
	return leads, nil
}

func (r *fakeLeadRepository) CountByStatus(_ context.Context) (map[models.LeadStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[models.LeadStatus]int)
	for _, lead := range r.s.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

func containsStatus(statuses []models.LeadStatus, status models.LeadStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeBuyerRepository struct{ s *store }

func (r *fakeBuyerRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Buyer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	buyer, ok := r.s.buyers[id]
	if !ok {
		return nil, fmt.Errorf("buyer %s: %w", id, repository.ErrNotFound)
	}
	return &buyer, nil
}

func (r *fakeBuyerRepository) ExistsByCompanyName(_ context.Context, companyName string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, buyer := range r.s.buyers {
		if buyer.CompanyName == companyName {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBuyerRepository) Create(_ context.Context, buyer *models.Buyer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.buyers {
		if existing.CompanyName == buyer.CompanyName {
			return fmt.Errorf("failed to create buyer: %w", repository.ErrDuplicate)
		}
	}
	buyer.ID = uuid.New()
	r.s.addBuyer(*buyer)
	return nil
}

func (r *fakeBuyerRepository) Update(_ context.Context, buyer *models.Buyer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.buyers[buyer.ID]; !ok {
		return fmt.Errorf("buyer %s: %w", buyer.ID, repository.ErrNotFound)
	}
	r.s.buyers[buyer.ID] = *buyer
	return nil
}

func (r *fakeBuyerRepository) UpdateTier(_ context.Context, id uuid.UUID, tier int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	buyer, ok := r.s.buyers[id]
	if !ok {
		return fmt.Errorf("buyer %s: %w", id, repository.ErrNotFound)
	}
	buyer.Tier = tier
	r.s.buyers[id] = buyer
	return nil
}

func (r *fakeBuyerRepository) GetAll(_ context.Context, filters repository.BuyerFilters) ([]models.Buyer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.buyerReads++

	buyers := []models.Buyer{}
	for _, id := range r.s.buyerOrder {
		buyer := r.s.buyers[id]
		if filters.Tier != nil && buyer.Tier != *filters.Tier {
			continue
		}
		buyers = append(buyers, buyer)
	}
	return buyers, nil
}

type fakeDealRepository struct{ s *store }

func (r *fakeDealRepository) Create(_ context.Context, deal *models.Deal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failDealCreate != nil {
		return r.s.failDealCreate
	}
	for _, existing := range r.s.deals {
		if existing.LeadID == deal.LeadID && existing.BuyerID == deal.BuyerID {
			return fmt.Errorf("failed to create deal: %w", repository.ErrDuplicate)
		}
	}
	deal.ID = uuid.New()
	r.s.deals = append(r.s.deals, *deal)
	return nil
}

func (r *fakeDealRepository) FindByLeadAndBuyer(_ context.Context, leadID, buyerID uuid.UUID) (*models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, deal := range r.s.deals {
		if deal.LeadID == leadID && deal.BuyerID == buyerID {
			found := deal
			return &found, nil
		}
	}
	return nil, fmt.Errorf("deal: %w", repository.ErrNotFound)
}

func (r *fakeDealRepository) UpdateStatus(_ context.Context, id uuid.UUID, status models.DealStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failDealStatus != nil {
		return r.s.failDealStatus
	}
	for i := range r.s.deals {
		if r.s.deals[i].ID == id {
			r.s.deals[i].Status = status
			r.s.deals[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("deal %s: %w", id, repository.ErrNotFound)
}

func (r *fakeDealRepository) GetByLead(_ context.Context, leadID uuid.UUID) ([]models.Deal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deals := []models.Deal{}
	for _, deal := range r.s.deals {
		if deal.LeadID == leadID {
			deals = append(deals, deal)
		}
	}
	return deals, nil
}

// fakeTransactionManager snapshots the store and restores it when fn fails
type fakeTransactionManager struct {
	store *store
	repos *repository.Repositories
}

func (tm *fakeTransactionManager) WithTransaction(_ context.Context, fn func(repos *repository.Repositories) error) error {
	tm.store.mu.Lock()
	leads := make(map[uuid.UUID]models.Lead, len(tm.store.leads))
	for id, lead := range tm.store.leads {
		leads[id] = lead
	}
	deals := append([]models.Deal(nil), tm.store.deals...)
	tm.store.mu.Unlock()

	if err := fn(tm.repos); err != nil {
		tm.store.mu.Lock()
		tm.store.leads = leads
		tm.store.deals = deals
		tm.store.mu.Unlock()
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// deal returns the stored deal for a lead/buyer pair
func (s *store) deal(leadID, buyerID uuid.UUID) (models.Deal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, deal := range s.deals {
		if deal.LeadID == leadID && deal.BuyerID == buyerID {
			return deal, true
		}
	}
	return models.Deal{}, false
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }
