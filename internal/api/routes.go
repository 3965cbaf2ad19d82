package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easyexithomes/leadmatch/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, svcs *services.Services, health *HealthHandler) {
	leadsHandler := NewLeadsHandler(svcs.Leads, svcs.Export)
	matchingHandler := NewMatchingHandler(svcs.Matching, svcs.Assignment)
	buyersHandler := NewBuyersHandler(svcs.Buyers)
	importHandler := NewImportHandler(svcs.Import)

	r.GET("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// Lead pipeline
		v1.GET("/leads", leadsHandler.ListLeads)
		v1.POST("/leads", leadsHandler.CreateLead)
		v1.GET("/leads/stats", leadsHandler.GetLeadStats)
		v1.POST("/leads/export", leadsHandler.ExportLeads)
		v1.GET("/leads/:id", leadsHandler.GetLead)
		v1.PATCH("/leads/:id/stage", leadsHandler.UpdateStage)

		// Matching and assignment
		v1.GET("/leads/:id/matches", matchingHandler.GetMatches)
		v1.GET("/leads/:id/match-stats", matchingHandler.GetMatchStats)
		v1.POST("/leads/:id/assign", matchingHandler.AssignLead)

		// Buyer registry
		v1.GET("/buyers", buyersHandler.ListBuyers)
		v1.POST("/buyers", buyersHandler.CreateBuyer)
		v1.GET("/buyers/:id", buyersHandler.GetBuyer)
		v1.PUT("/buyers/:id", buyersHandler.UpdateBuyer)

		// CSV imports
		v1.POST("/import/leads", importHandler.ImportLeads)
		v1.POST("/import/buyers", importHandler.ImportBuyers)
	}
}
