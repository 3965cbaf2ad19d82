package api

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/errors"
	"github.com/easyexithomes/leadmatch/internal/importer"
	"github.com/easyexithomes/leadmatch/internal/matching"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
)

type fakeMatchingService struct {
	matches   []matching.MatchResult
	stats     *matching.Stats
	err       error
	lastLimit int
}

func (f *fakeMatchingService) RankBuyers(_ context.Context, _ string, limit int) ([]matching.MatchResult, error) {
	f.lastLimit = limit
	return f.matches, f.err
}

func (f *fakeMatchingService) MatchStatistics(context.Context, string) (*matching.Stats, error) {
	return f.stats, f.err
}

func (f *fakeMatchingService) BuyerPool(context.Context) ([]models.Buyer, error) {
	return nil, f.err
}

type fakeAssignmentService struct {
	result *services.AssignmentResult
	err    error
}

func (f *fakeAssignmentService) AssignLeadToBuyer(context.Context, string, string) (*services.AssignmentResult, error) {
	return f.result, f.err
}

type fakeLeadService struct {
	leads       []models.Lead
	created     *models.Lead
	lastFilters repository.LeadFilters
	stats       *services.PipelineStats
	err         error
}

func (f *fakeLeadService) GetByID(_ context.Context, id string) (*models.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.leads {
		if f.leads[i].ID.String() == id {
			return &f.leads[i], nil
		}
	}
	return nil, errors.NotFound("lead not found", nil)
}

func (f *fakeLeadService) List(_ context.Context, filters repository.LeadFilters) ([]models.Lead, error) {
	f.lastFilters = filters
	return f.leads, f.err
}

func (f *fakeLeadService) Create(_ context.Context, lead *models.Lead) error {
	if f.err != nil {
		return f.err
	}
	lead.ID = uuid.New()
	f.created = lead
	return nil
}

func (f *fakeLeadService) UpdateStage(_ context.Context, id, stage string) (*models.Lead, error) {
	lead, err := f.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	lead.Status = models.LeadStatus(stage)
	return lead, nil
}

func (f *fakeLeadService) Stats(context.Context) (*services.PipelineStats, error) {
	return f.stats, f.err
}

type fakeBuyerService struct {
	buyers      map[uuid.UUID]*models.Buyer
	lastFilters repository.BuyerFilters
	err         error
}

func (f *fakeBuyerService) GetByID(_ context.Context, id string) (*models.Buyer, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput("invalid buyer ID", err)
	}
	buyer, ok := f.buyers[parsed]
	if !ok {
		return nil, errors.NotFound("buyer not found", nil)
	}
	return buyer, nil
}

func (f *fakeBuyerService) List(_ context.Context, filters repository.BuyerFilters) ([]models.Buyer, error) {
	f.lastFilters = filters
	out := make([]models.Buyer, 0, len(f.buyers))
	for _, b := range f.buyers {
		out = append(out, *b)
	}
	return out, f.err
}

func (f *fakeBuyerService) Create(_ context.Context, buyer *models.Buyer) error {
	if f.err != nil {
		return f.err
	}
	buyer.ID = uuid.New()
	f.buyers[buyer.ID] = buyer
	return nil
}

func (f *fakeBuyerService) Update(_ context.Context, buyer *models.Buyer) error {
	if _, ok := f.buyers[buyer.ID]; !ok {
		return errors.NotFound("buyer not found", nil)
	}
	f.buyers[buyer.ID] = buyer
	return nil
}

func (f *fakeBuyerService) BackfillTiers(context.Context) (int, error) {
	return 0, f.err
}

type fakeImportService struct {
	summary *importer.Summary
	body    string
	err     error
}

func (f *fakeImportService) ImportLeads(context.Context, []models.Lead) (*importer.Summary, error) {
	return f.summary, f.err
}

func (f *fakeImportService) ImportLeadsCSV(_ context.Context, r io.Reader) (*importer.Summary, error) {
	return f.read(r)
}

func (f *fakeImportService) ImportBuyersCSV(_ context.Context, r io.Reader) (*importer.Summary, error) {
	return f.read(r)
}

func (f *fakeImportService) read(r io.Reader) (*importer.Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	return f.summary, f.err
}
