package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/viability"
)

// PipelineStats summarizes the lead pipeline
type PipelineStats struct {
	TotalLeads int                       `json:"total_leads"`
	ByStatus   map[models.LeadStatus]int `json:"by_status"`
	Unscored   int                       `json:"unscored"`
	Viability  viability.Summary         `json:"viability"`
}

// leadServiceImpl implements LeadService
type leadServiceImpl struct {
	repos  *repository.Repositories
	logger logger.Logger
}

// newLeadService creates a new lead service implementation
func newLeadService(repos *repository.Repositories, log logger.Logger) LeadService {
	return &leadServiceImpl{
		repos:  repos,
		logger: log,
	}
}

// GetByID retrieves a lead by ID
func (s *leadServiceImpl) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput("invalid lead ID", err).WithOperation("GetLead")
	}

	lead, err := s.repos.Leads.GetByID(ctx, leadID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("lead not found", err).WithOperation("GetLead")
		}
		return nil, errors.DatabaseError("failed to get lead", err).WithOperation("GetLead")
	}

	return lead, nil
}

// List retrieves leads with filters
func (s *leadServiceImpl) List(ctx context.Context, filters repository.LeadFilters) ([]models.Lead, error) {
	for _, status := range filters.Statuses {
		if !status.IsValid() {
			return nil, errors.InvalidInput(fmt.Sprintf("unknown stage %q", status), nil).WithOperation("ListLeads")
		}
	}

	leads, err := s.repos.Leads.GetAll(ctx, filters)
	if err != nil {
		return nil, errors.DatabaseError("failed to get leads", err).WithOperation("ListLeads")
	}
	return leads, nil
}

// Create stores a manually entered lead
func (s *leadServiceImpl) Create(ctx context.Context, lead *models.Lead) error {
	lead.Address = strings.TrimSpace(lead.Address)
	if lead.Address == "" {
		return errors.InvalidInput("address is required", nil).WithOperation("CreateLead")
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if !lead.Status.IsValid() {
		return errors.InvalidInput(fmt.Sprintf("unknown stage %q", lead.Status), nil).WithOperation("CreateLead")
	}
	if lead.Source == "" {
		lead.Source = "manual"
	}

	if err := s.repos.Leads.Create(ctx, lead); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return errors.Conflict("a lead with this address already exists", err).WithOperation("CreateLead")
		}
		return errors.DatabaseError("failed to create lead", err).WithOperation("CreateLead")
	}

	s.logger.Info("Lead created", "lead_id", lead.ID, "address", lead.Address)
	return nil
}

// UpdateStage moves a lead to another pipeline stage
func (s *leadServiceImpl) UpdateStage(ctx context.Context, id, stage string) (*models.Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput("invalid lead ID", err).WithOperation("UpdateStage")
	}

	status := models.LeadStatus(strings.ToLower(strings.TrimSpace(stage)))
	if !status.IsValid() {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown stage %q", stage), nil).WithOperation("UpdateStage")
	}

	if err := s.repos.Leads.Update(ctx, leadID, models.LeadPatch{Status: &status}); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("lead not found", err).WithOperation("UpdateStage")
		}
		return nil, errors.DatabaseError("failed to update lead stage", err).WithOperation("UpdateStage")
	}

	s.logger.Info("Lead stage updated", "lead_id", leadID, "stage", status)
	return s.GetByID(ctx, id)
}

// Stats counts leads per stage and summarizes stored viability scores
func (s *leadServiceImpl) Stats(ctx context.Context) (*PipelineStats, error) {
	counts, err := s.repos.Leads.CountByStatus(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to count leads", err).WithOperation("LeadStats")
	}

	stats := &PipelineStats{ByStatus: make(map[models.LeadStatus]int, len(models.LeadStatuses))}
	for _, status := range models.LeadStatuses {
		stats.ByStatus[status] = counts[status]
	}
	for _, n := range counts {
		stats.TotalLeads += n
	}

	leads, err := s.repos.Leads.GetAll(ctx, repository.LeadFilters{})
	if err != nil {
		return nil, errors.DatabaseError("failed to get leads", err).WithOperation("LeadStats")
	}

	results := make([]viability.Result, 0, len(leads))
	for _, lead := range leads {
		if lead.ViabilityScore == nil {
			stats.Unscored++
			continue
		}
		score := *lead.ViabilityScore
		results = append(results, viability.Result{Score: score, Viable: score >= viability.ViableThreshold})
	}
	stats.Viability = viability.Summarize(results)

	return stats, nil
}
