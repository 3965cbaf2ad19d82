package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/viability"
)

// LeadExportService handles filtering and exporting pipeline leads
type LeadExportService struct {
	repos *repository.Repositories
}

// NewLeadExportService creates a new lead export service
func NewLeadExportService(repos *repository.Repositories) *LeadExportService {
	return &LeadExportService{repos: repos}
}

// LeadFilter contains filtering criteria for exported leads
type LeadFilter struct {
	Statuses     []string `json:"statuses"`      // Pipeline stages to include
	Market       string   `json:"market"`        // Market substring
	Assigned     *bool    `json:"assigned"`      // Filter by assignment
	MinViability *int     `json:"min_viability"` // Minimum viability score
	MaxViability *int     `json:"max_viability"` // Maximum viability score
	ViableOnly   bool     `json:"viable_only"`   // Only leads at or above the viable threshold
	Limit        *int     `json:"limit"`         // Limit number of results
}

// ExportFormat specifies the format for exporting leads
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ExportedLead is one row of a lead export
type ExportedLead struct {
	ID              string     `json:"id"`
	Address         string     `json:"address"`
	Market          string     `json:"market"`
	OwnerName       string     `json:"owner_name,omitempty"`
	Status          string     `json:"status"`
	ARV             *float64   `json:"arv"`
	RepairEstimate  *float64   `json:"repair_estimate"`
	EstimatedProfit *float64   `json:"estimated_profit"`
	EstimatedValue  *float64   `json:"estimated_value"`
	ViabilityScore  *int       `json:"viability_score"`
	Viable          bool       `json:"is_viable"`
	AssignedBuyerID string     `json:"assigned_buyer_id,omitempty"`
	AssignmentDate  *time.Time `json:"assignment_date,omitempty"`
	Source          string     `json:"source"`
	CreatedAt       time.Time  `json:"created_at"`
}

var exportHeader = []string{
	"id", "address", "market", "owner_name", "status", "arv", "repair_estimate", "estimated_profit",
	"estimated_value", "viability_score", "is_viable", "assigned_buyer_id", "assignment_date", "source", "created_at",
}

// GetLeads retrieves leads that match the filtering criteria
func (s *LeadExportService) GetLeads(ctx context.Context, filter LeadFilter) ([]ExportedLead, error) {
	filters, err := filter.toRepository()
	if err != nil {
		return nil, err.WithOperation("ExportLeads")
	}

	leads, dbErr := s.repos.Leads.GetAll(ctx, filters)
	if dbErr != nil {
		return nil, errors.DatabaseError("failed to get leads", dbErr).WithOperation("ExportLeads")
	}

	exported := make([]ExportedLead, len(leads))
	for i := range leads {
		exported[i] = toExportedLead(&leads[i])
	}
	return exported, nil
}

// Export writes the filtered leads to w in the requested format
func (s *LeadExportService) Export(ctx context.Context, filter LeadFilter, format ExportFormat, w io.Writer) error {
	if format != FormatJSON && format != FormatCSV {
		return errors.InvalidInput(fmt.Sprintf("unsupported export format: %s", format), nil).WithOperation("ExportLeads")
	}

	leads, err := s.GetLeads(ctx, filter)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		err = exportToJSON(w, leads)
	default:
		err = exportToCSV(w, leads)
	}
	if err != nil {
		return errors.InternalError("failed to write export", err).WithOperation("ExportLeads")
	}
	return nil
}

func (f LeadFilter) toRepository() (repository.LeadFilters, *errors.AppError) {
	filters := repository.LeadFilters{
		Market:       f.Market,
		Assigned:     f.Assigned,
		MinViability: f.MinViability,
		MaxViability: f.MaxViability,
	}

	for _, raw := range f.Statuses {
		status := models.LeadStatus(raw)
		if !status.IsValid() {
			return filters, errors.InvalidInput(fmt.Sprintf("unknown stage %q", raw), nil)
		}
		filters.Statuses = append(filters.Statuses, status)
	}

	if f.ViableOnly {
		threshold := viability.ViableThreshold
		if filters.MinViability == nil || *filters.MinViability < threshold {
			filters.MinViability = &threshold
		}
	}
	if filters.MinViability != nil && filters.MaxViability != nil && *filters.MinViability > *filters.MaxViability {
		return filters, errors.InvalidInput("min_viability is greater than max_viability", nil)
	}

	if f.Limit != nil {
		if *f.Limit < 0 {
			return filters, errors.InvalidInput("limit must not be negative", nil)
		}
		filters.Limit = *f.Limit
	}

	return filters, nil
}

func toExportedLead(lead *models.Lead) ExportedLead {
	exported := ExportedLead{
		ID:              lead.ID.String(),
		Address:         lead.Address,
		Market:          lead.MarketName(),
		Status:          string(lead.Status),
		ARV:             lead.ARV,
		RepairEstimate:  lead.RepairEstimate,
		EstimatedProfit: lead.EstimatedProfit,
		EstimatedValue:  lead.EstimatedValue,
		ViabilityScore:  lead.ViabilityScore,
		AssignmentDate:  lead.AssignmentDate,
		Source:          lead.Source,
		CreatedAt:       lead.CreatedAt,
	}
	if lead.OwnerName != nil {
		exported.OwnerName = *lead.OwnerName
	}
	if lead.ViabilityScore != nil {
		exported.Viable = *lead.ViabilityScore >= viability.ViableThreshold
	}
	if lead.AssignedBuyerID != nil {
		exported.AssignedBuyerID = lead.AssignedBuyerID.String()
	}
	return exported
}

// exportToJSON writes leads as an indented JSON array
func exportToJSON(w io.Writer, leads []ExportedLead) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(leads)
}

// exportToCSV writes leads as CSV with a header row
func exportToCSV(w io.Writer, leads []ExportedLead) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, lead := range leads {
		record := []string{
			lead.ID,
			lead.Address,
			lead.Market,
			lead.OwnerName,
			lead.Status,
			formatFloat(lead.ARV),
			formatFloat(lead.RepairEstimate),
			formatFloat(lead.EstimatedProfit),
			formatFloat(lead.EstimatedValue),
			formatInt(lead.ViabilityScore),
			strconv.FormatBool(lead.Viable),
			lead.AssignedBuyerID,
			formatTime(lead.AssignmentDate),
			lead.Source,
			lead.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
