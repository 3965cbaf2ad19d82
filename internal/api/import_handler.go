package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easyexithomes/leadmatch/internal/importer"
	"github.com/easyexithomes/leadmatch/internal/services"
)

// ImportHandler accepts lead and buyer CSV uploads
type ImportHandler struct {
	importService services.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportLeads loads a lead CSV export
func (h *ImportHandler) ImportLeads(c *gin.Context) {
	h.upload(c, h.importService.ImportLeadsCSV)
}

// ImportBuyers loads a buyer CSV export
func (h *ImportHandler) ImportBuyers(c *gin.Context) {
	h.upload(c, h.importService.ImportBuyersCSV)
}

func (h *ImportHandler) upload(c *gin.Context, run func(context.Context, io.Reader) (*importer.Summary, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	file, header, err := c.Request.FormFile("csv_file")
	if err != nil {
		badRequest(c, "No CSV file provided")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		badRequest(c, "File must be a CSV")
		return
	}

	summary, err := run(ctx, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename": header.Filename,
		"summary":  summary,
		"total":    summary.Total(),
	})
}
