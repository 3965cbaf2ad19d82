package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/repository"
	"github.com/easyexithomes/leadmatch/internal/services"
)

// BuyersHandler handles buyer registry operations
type BuyersHandler struct {
	buyerService services.BuyerService
}

// NewBuyersHandler creates a new buyers handler
func NewBuyersHandler(buyerService services.BuyerService) *BuyersHandler {
	return &BuyersHandler{buyerService: buyerService}
}

// BuyerRequest is the body of POST /buyers and PUT /buyers/:id.
// A zero tier is derived from the notes.
type BuyerRequest struct {
	CompanyName      string   `json:"company_name" binding:"required,max=200"`
	ContactName      *string  `json:"contact_name" binding:"omitempty,max=200"`
	Phone            *string  `json:"phone" binding:"omitempty,max=40"`
	Email            *string  `json:"email" binding:"omitempty,email"`
	Website          *string  `json:"website" binding:"omitempty,url"`
	TargetMarkets    *string  `json:"target_markets" binding:"omitempty,max=1000"`
	Notes            *string  `json:"notes" binding:"omitempty,max=2000"`
	ReliabilityScore *float64 `json:"reliability_score" binding:"omitempty,gte=0,lte=10"`
	Tier             int      `json:"tier" binding:"gte=0,lte=3"`
}

func (r BuyerRequest) toModel() *models.Buyer {
	return &models.Buyer{
		CompanyName:      r.CompanyName,
		ContactName:      r.ContactName,
		Phone:            r.Phone,
		Email:            r.Email,
		Website:          r.Website,
		TargetMarkets:    r.TargetMarkets,
		Notes:            r.Notes,
		ReliabilityScore: r.ReliabilityScore,
		Tier:             r.Tier,
	}
}

// ListBuyers returns buyers, optionally restricted to one tier
func (h *BuyersHandler) ListBuyers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var filters repository.BuyerFilters
	tier, err := queryInt(c, "tier")
	if err != nil {
		respondError(c, err)
		return
	}
	if tier != nil && (*tier < 0 || *tier > 3) {
		badRequest(c, "tier must be between 0 and 3")
		return
	}
	filters.Tier = tier
	if filters.Limit, filters.Offset, err = queryPage(c); err != nil {
		respondError(c, err)
		return
	}

	buyers, err := h.buyerService.List(ctx, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"buyers": buyers,
		"count":  len(buyers),
	})
}

// CreateBuyer registers a new buyer
func (h *BuyersHandler) CreateBuyer(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var req BuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid buyer: "+err.Error())
		return
	}

	buyer := req.toModel()
	if err := h.buyerService.Create(ctx, buyer); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"buyer": buyer})
}

// GetBuyer returns a single buyer
func (h *BuyersHandler) GetBuyer(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	buyer, err := h.buyerService.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"buyer": buyer})
}

// UpdateBuyer replaces a buyer's editable fields
func (h *BuyersHandler) UpdateBuyer(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid buyer ID")
		return
	}

	var req BuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid buyer: "+err.Error())
		return
	}

	buyer := req.toModel()
	buyer.ID = id
	if err := h.buyerService.Update(ctx, buyer); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"buyer": buyer})
}
