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

const buyerColumns = `id, company_name, contact_name, phone, email, website, target_markets,
	notes, reliability_score, tier, created_at, updated_at`

// buyerRepository implements BuyerRepository
type buyerRepository struct {
	db dbExecutor
}

// NewBuyerRepository creates a new buyer repository
func NewBuyerRepository(db dbExecutor) BuyerRepository {
	return &buyerRepository{db: db}
}

func scanBuyer(row rowScanner) (*models.Buyer, error) {
	buyer := &models.Buyer{}
	err := row.Scan(
		&buyer.ID, &buyer.CompanyName, &buyer.ContactName, &buyer.Phone, &buyer.Email,
		&buyer.Website, &buyer.TargetMarkets, &buyer.Notes, &buyer.ReliabilityScore,
		&buyer.Tier, &buyer.CreatedAt, &buyer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return buyer, nil
}

// GetByID retrieves a buyer by ID
func (r *buyerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE id = $1`

	buyer, err := scanBuyer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("buyer %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}

	return buyer, nil
}

// ExistsByCompanyName reports whether a buyer with the exact company name is stored
func (r *buyerRepository) ExistsByCompanyName(ctx context.Context, companyName string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM buyers WHERE company_name = $1)`, companyName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check buyer name: %w", err)
	}
	return exists, nil
}

// Create inserts a new buyer
func (r *buyerRepository) Create(ctx context.Context, buyer *models.Buyer) error {
	if buyer.ID == uuid.Nil {
		buyer.ID = uuid.New()
	}

	now := time.Now()
	buyer.CreatedAt = now
	buyer.UpdatedAt = now

	query := `
		INSERT INTO buyers (` + buyerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		buyer.ID, buyer.CompanyName, buyer.ContactName, buyer.Phone, buyer.Email,
		buyer.Website, buyer.TargetMarkets, buyer.Notes, buyer.ReliabilityScore,
		buyer.Tier, buyer.CreatedAt, buyer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create buyer: %w", translateWriteError(err))
	}

	return nil
}

// Update overwrites an existing buyer's editable fields
func (r *buyerRepository) Update(ctx context.Context, buyer *models.Buyer) error {
	buyer.UpdatedAt = time.Now()

	query := `
		UPDATE buyers SET
			company_name = $2, contact_name = $3, phone = $4, email = $5, website = $6,
			target_markets = $7, notes = $8, reliability_score = $9, tier = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		buyer.ID, buyer.CompanyName, buyer.ContactName, buyer.Phone, buyer.Email,
		buyer.Website, buyer.TargetMarkets, buyer.Notes, buyer.ReliabilityScore,
		buyer.Tier, buyer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update buyer: %w", translateWriteError(err))
	}

	return checkAffected(result, "buyer "+buyer.ID.String())
}

// UpdateTier sets the typed tier column only
func (r *buyerRepository) UpdateTier(ctx context.Context, id uuid.UUID, tier int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET tier = $2, updated_at = $3 WHERE id = $1`,
		id, tier, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update buyer tier: %w", err)
	}

	return checkAffected(result, "buyer "+id.String())
}

// GetAll retrieves buyers in a stable order (creation time, then id)
func (r *buyerRepository) GetAll(ctx context.Context, filters BuyerFilters) ([]models.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers`

	var args []interface{}
	argIndex := 1

	if filters.Tier != nil {
		query += fmt.Sprintf(" WHERE tier = $%d", argIndex)
		args = append(args, *filters.Tier)
		argIndex++
	}

	query += " ORDER BY created_at ASC, id ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query buyers: %w", err)
	}
	defer rows.Close()

	buyers := []models.Buyer{}
	for rows.Next() {
		buyer, err := scanBuyer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		buyers = append(buyers, *buyer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buyers: %w", err)
	}

	return buyers, nil
}
