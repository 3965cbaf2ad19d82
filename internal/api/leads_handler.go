package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
)

// LeadsHandler handles lead pipeline, stats and export operations
type LeadsHandler struct {
	leadService   services.LeadService
	exportService *services.LeadExportService
}

// NewLeadsHandler creates a new leads handler
func NewLeadsHandler(leadService services.LeadService, exportService *services.LeadExportService) *LeadsHandler {
	return &LeadsHandler{
		leadService:   leadService,
		exportService: exportService,
	}
}

// CreateLeadRequest is the body of POST /leads
type CreateLeadRequest struct {
	Address         string   `json:"address" binding:"required,max=500"`
	City            *string  `json:"city" binding:"omitempty,max=100"`
	State           *string  `json:"state" binding:"omitempty,max=50"`
	Zip             *string  `json:"zip" binding:"omitempty,max=20"`
	Market          *string  `json:"market" binding:"omitempty,max=200"`
	OwnerName       *string  `json:"owner_name" binding:"omitempty,max=200"`
	ARV             *float64 `json:"arv" binding:"omitempty,gte=0"`
	RepairEstimate  *float64 `json:"repair_estimate" binding:"omitempty,gte=0"`
	EstimatedProfit *float64 `json:"estimated_profit"`
	EstimatedValue  *float64 `json:"estimated_value" binding:"omitempty,gte=0"`
	ViabilityScore  *int     `json:"viability_score" binding:"omitempty,gte=0,lte=100"`
	Status          string   `json:"status"`
	Source          string   `json:"source" binding:"omitempty,max=50"`
}

// UpdateStageRequest is the body of PATCH /leads/:id/stage
type UpdateStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// ListLeads returns leads filtered by stage, market, assignment and viability
func (h *LeadsHandler) ListLeads(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	filters, err := parseLeadFilters(c)
	if err != nil {
		respondError(c, err)
		return
	}

	leads, err := h.leadService.List(ctx, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":     leads,
		"count":     len(leads),
		"timestamp": time.Now(),
	})
}

// CreateLead adds a single lead to the pipeline
func (h *LeadsHandler) CreateLead(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid lead: "+err.Error())
		return
	}

	lead := &models.Lead{
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		Zip:             req.Zip,
		Market:          req.Market,
		OwnerName:       req.OwnerName,
		ARV:             req.ARV,
		RepairEstimate:  req.RepairEstimate,
		EstimatedProfit: req.EstimatedProfit,
		EstimatedValue:  req.EstimatedValue,
		ViabilityScore:  req.ViabilityScore,
		Status:          models.LeadStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		Source:          req.Source,
	}
	if err := h.leadService.Create(ctx, lead); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lead": lead})
}

// GetLead returns a single lead
func (h *LeadsHandler) GetLead(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	lead, err := h.leadService.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// UpdateStage moves a lead to another pipeline stage
func (h *LeadsHandler) UpdateStage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var req UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	lead, err := h.leadService.UpdateStage(ctx, c.Param("id"), req.Stage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// GetLeadStats returns pipeline counts and the viability summary
func (h *LeadsHandler) GetLeadStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.leadService.Stats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"timestamp": time.Now(),
	})
}

// ExportLeads writes the filtered leads as a JSON or CSV attachment
func (h *LeadsHandler) ExportLeads(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	var filter services.LeadFilter
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&filter); err != nil {
			badRequest(c, "Invalid filter parameters: "+err.Error())
			return
		}
	}

	format := services.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(services.FormatJSON))))

	var buf bytes.Buffer
	if err := h.exportService.Export(ctx, filter, format, &buf); err != nil {
		respondError(c, err)
		return
	}

	contentType := "application/json"
	if format == services.FormatCSV {
		contentType = "text/csv"
	}
	filename := "leads_" + time.Now().Format("2006-01-02_15-04-05") + "." + string(format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func parseLeadFilters(c *gin.Context) (repository.LeadFilters, error) {
	var filters repository.LeadFilters

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filters.Statuses = append(filters.Statuses, models.LeadStatus(strings.ToLower(part)))
			}
		}
	}
	filters.Market = strings.TrimSpace(c.Query("market"))

	if raw := c.Query("assigned"); raw != "" {
		assigned, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, badParam("assigned", err)
		}
		filters.Assigned = &assigned
	}

	var err error
	if filters.MinViability, err = queryInt(c, "min_viability"); err != nil {
		return filters, err
	}
	if filters.MaxViability, err = queryInt(c, "max_viability"); err != nil {
		return filters, err
	}

	if filters.Limit, filters.Offset, err = queryPage(c); err != nil {
		return filters, err
	}

	return filters, nil
}
