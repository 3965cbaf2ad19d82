package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	ExistsByAddress(ctx context.Context, address string) (bool, error)
	Create(ctx context.Context, lead *models.Lead) error
	// Update applies a partial update. Only non-nil patch fields are written.
	Update(ctx context.Context, id uuid.UUID, patch models.LeadPatch) error
	GetAll(ctx context.Context, filters LeadFilters) ([]models.Lead, error)
	CountByStatus(ctx context.Context) (map[models.LeadStatus]int, error)
}

// BuyerRepository defines the interface for buyer data access
type BuyerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
	ExistsByCompanyName(ctx context.Context, companyName string) (bool, error)
	Create(ctx context.Context, buyer *models.Buyer) error
	Update(ctx context.Context, buyer *models.Buyer) error
	UpdateTier(ctx context.Context, id uuid.UUID, tier int) error
	GetAll(ctx context.Context, filters BuyerFilters) ([]models.Buyer, error)
}

// DealRepository defines the interface for deal data access
type DealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	FindByLeadAndBuyer(ctx context.Context, leadID, buyerID uuid.UUID) (*models.Deal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DealStatus) error
	GetByLead(ctx context.Context, leadID uuid.UUID) ([]models.Deal, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Leads  LeadRepository
	Buyers BuyerRepository
	Deals  DealRepository
	Tx     TransactionManager
}

// LeadFilters defines filters for querying leads
type LeadFilters struct {
	Statuses     []models.LeadStatus
	Market       string
	Assigned     *bool
	MinViability *int
	MaxViability *int
	Limit        int
	Offset       int
}

// BuyerFilters defines filters for querying buyers.
// A nil Tier returns every buyer; Tier 0 selects rows not yet classified.
type BuyerFilters struct {
	Tier   *int
	Limit  int
	Offset int
}
