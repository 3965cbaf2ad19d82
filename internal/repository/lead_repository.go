package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/models"
)

const leadColumns = `id, address, city, state, zip, market, owner_name, arv, repair_estimate,
	estimated_profit, estimated_value, viability_score, status, source, assigned_buyer_id,
	assignment_date, created_at, updated_at`

// leadRepository implements LeadRepository
type leadRepository struct {
	db dbExecutor
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db dbExecutor) LeadRepository {
	return &leadRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	lead := &models.Lead{}
	err := row.Scan(
		&lead.ID, &lead.Address, &lead.City, &lead.State, &lead.Zip, &lead.Market,
		&lead.OwnerName, &lead.ARV, &lead.RepairEstimate, &lead.EstimatedProfit,
		&lead.EstimatedValue, &lead.ViabilityScore, &lead.Status, &lead.Source,
		&lead.AssignedBuyerID, &lead.AssignmentDate, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// GetByID retrieves a lead by ID
func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lead %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}

// ExistsByAddress reports whether a lead with the exact address is stored
func (r *leadRepository) ExistsByAddress(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE address = $1)`, address).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check lead address: %w", err)
	}
	return exists, nil
}

// Create inserts a new lead
func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}

	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.Address, lead.City, lead.State, lead.Zip, lead.Market,
		lead.OwnerName, lead.ARV, lead.RepairEstimate, lead.EstimatedProfit,
		lead.EstimatedValue, lead.ViabilityScore, lead.Status, lead.Source,
		lead.AssignedBuyerID, lead.AssignmentDate, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", translateWriteError(err))
	}

	return nil
}

// Update writes only the fields present in the patch
func (r *leadRepository) Update(ctx context.Context, id uuid.UUID, patch models.LeadPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var setClauses []string
	var args []interface{}
	argIndex := 1

	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.AssignedBuyerID != nil {
		set("assigned_buyer_id", *patch.AssignedBuyerID)
	}
	if patch.AssignmentDate != nil {
		set("assignment_date", *patch.AssignmentDate)
	}
	if patch.Market != nil {
		set("market", *patch.Market)
	}
	if patch.EstimatedValue != nil {
		set("estimated_value", *patch.EstimatedValue)
	}
	if patch.ViabilityScore != nil {
		set("viability_score", *patch.ViabilityScore)
	}
	set("updated_at", time.Now())

	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argIndex)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", translateWriteError(err))
	}

	return checkAffected(result, "lead "+id.String())
}

// GetAll retrieves leads with filters, most viable first
func (r *leadRepository) GetAll(ctx context.Context, filters LeadFilters) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if len(filters.Statuses) > 0 {
		placeholders := make([]string, len(filters.Statuses))
		for i, status := range filters.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, status)
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	if filters.Market != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("market ILIKE $%d", argIndex))
		args = append(args, "%"+filters.Market+"%")
		argIndex++
	}

	if filters.Assigned != nil {
		if *filters.Assigned {
			whereClauses = append(whereClauses, "assigned_buyer_id IS NOT NULL")
		} else {
			whereClauses = append(whereClauses, "assigned_buyer_id IS NULL")
		}
	}

	if filters.MinViability != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("viability_score >= $%d", argIndex))
		args = append(args, *filters.MinViability)
		argIndex++
	}

	if filters.MaxViability != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("viability_score <= $%d", argIndex))
		args = append(args, *filters.MaxViability)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY viability_score DESC NULLS LAST, created_at DESC"

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
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return leads, nil
}

// CountByStatus returns lead counts grouped by pipeline stage
func (r *leadRepository) CountByStatus(ctx context.Context) (map[models.LeadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.LeadStatus]int)
	for rows.Next() {
		var status models.LeadStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan lead count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lead counts: %w", err)
	}

	return counts, nil
}
