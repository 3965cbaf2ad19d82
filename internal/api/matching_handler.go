package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easyexithomes/leadmatch/internal/services"
)

// MatchingHandler exposes buyer ranking and lead assignment
type MatchingHandler struct {
	matchingService   services.MatchingService
	assignmentService services.AssignmentService
}

// NewMatchingHandler creates a new matching handler
func NewMatchingHandler(matchingService services.MatchingService, assignmentService services.AssignmentService) *MatchingHandler {
	return &MatchingHandler{
		matchingService:   matchingService,
		assignmentService: assignmentService,
	}
}

// AssignLeadRequest is the body of POST /leads/:id/assign
type AssignLeadRequest struct {
	BuyerID string `json:"buyer_id" binding:"required,uuid"`
}

// GetMatches returns the ranked buyers for a lead.
// limit=all returns every matching buyer; no limit uses the configured default.
func (h *MatchingHandler) GetMatches(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if strings.EqualFold(raw, "all") {
			limit = -1
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				badRequest(c, "limit must be a positive integer or 'all'")
				return
			}
			limit = n
		}
	}

	leadID := c.Param("id")
	matches, err := h.matchingService.RankBuyers(ctx, leadID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead_id":   leadID,
		"matches":   matches,
		"count":     len(matches),
		"timestamp": time.Now(),
	})
}

// GetMatchStats returns tier counts and the top match for a lead
func (h *MatchingHandler) GetMatchStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.matchingService.MatchStatistics(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead_id": c.Param("id"),
		"stats":   stats,
	})
}

// AssignLead hands a lead to a buyer. A lead that was assigned but whose
// deal could not be recorded still returns 200 with needs_follow_up set.
func (h *MatchingHandler) AssignLead(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	var req AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "A valid buyer_id is required")
		return
	}

	result, err := h.assignmentService.AssignLeadToBuyer(ctx, c.Param("id"), req.BuyerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
