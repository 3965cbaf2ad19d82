package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assignment outcomes
const (
	OutcomeAssigned     = "assigned"
	OutcomeDealReused   = "deal_reused"
	OutcomePartial      = "partial"
	OutcomeFailed       = "failed"
	OutcomeInvalidInput = "invalid_input"
)

// Import row results
const (
	ResultInserted = "inserted"
	ResultSkipped  = "skipped"
	ResultError    = "error"
)

// Buyer cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmatch_assignments_total",
			Help: "Lead assignment attempts by outcome",
		},
		[]string{"outcome"},
	)

	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmatch_import_rows_total",
			Help: "Imported rows by entity and result",
		},
		[]string{"entity", "result"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadmatch_ranking_duration_seconds",
			Help:    "Time spent loading and ranking buyers for a lead",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankedBuyers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadmatch_ranked_buyers",
			Help:    "Number of buyers returned per ranking",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	BuyerCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmatch_buyer_cache_requests_total",
			Help: "Buyer pool cache lookups by result",
		},
		[]string{"result"},
	)
)
