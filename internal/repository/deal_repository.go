package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/models"
)

const dealColumns = `id, lead_id, buyer_id, property_address, market, list_price, offer_price,
	status, assignment_date, created_at, updated_at`

// dealRepository implements DealRepository
type dealRepository struct {
	db dbExecutor
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db dbExecutor) DealRepository {
	return &dealRepository{db: db}
}

func scanDeal(row rowScanner) (*models.Deal, error) {
	deal := &models.Deal{}
	err := row.Scan(
		&deal.ID, &deal.LeadID, &deal.BuyerID, &deal.PropertyAddress, &deal.Market,
		&deal.ListPrice, &deal.OfferPrice, &deal.Status, &deal.AssignmentDate,
		&deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return deal, nil
}

// Create inserts a new deal. A second deal for the same lead and buyer fails with ErrDuplicate.
func (r *dealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	if deal.Status == "" {
		deal.Status = models.DealStatusAssigned
	}

	now := time.Now()
	if deal.AssignmentDate.IsZero() {
		deal.AssignmentDate = now
	}
	deal.CreatedAt = now
	deal.UpdatedAt = now

	query := `
		INSERT INTO deals (` + dealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		deal.ID, deal.LeadID, deal.BuyerID, deal.PropertyAddress, deal.Market,
		deal.ListPrice, deal.OfferPrice, deal.Status, deal.AssignmentDate,
		deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", translateWriteError(err))
	}

	return nil
}

// FindByLeadAndBuyer returns the deal for a lead/buyer pair
func (r *dealRepository) FindByLeadAndBuyer(ctx context.Context, leadID, buyerID uuid.UUID) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE lead_id = $1 AND buyer_id = $2`

	deal, err := scanDeal(r.db.QueryRowContext(ctx, query, leadID, buyerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("deal for lead %s and buyer %s: %w", leadID, buyerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return deal, nil
}

// UpdateStatus moves a deal to the given status
func (r *dealRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DealStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE deals SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update deal status: %w", err)
	}

	return checkAffected(result, "deal "+id.String())
}

// GetByLead returns every deal recorded for a lead, newest first
func (r *dealRepository) GetByLead(ctx context.Context, leadID uuid.UUID) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE lead_id = $1 ORDER BY assignment_date DESC`

	rows, err := r.db.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deals: %w", err)
	}

	return deals, nil
}
