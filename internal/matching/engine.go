package matching

import (
	"sort"

	"github.com/google/uuid"

	"github.com/easyexithomes/leadmatch/internal/models"
)

// Engine ranks buyers for a lead under a market-matching policy.
// It holds no mutable state; every call is a pure function of its inputs.
type Engine struct {
	policy Policy
}

// NewEngine creates a new matching engine
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// NewDefaultEngine creates an engine with the permissive default policy
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultPolicy())
}

// Policy returns the engine's market-matching policy
func (e *Engine) Policy() Policy {
	return e.policy
}

// MatchResult is a derived, never-persisted projection of one buyer's fit for a lead
type MatchResult struct {
	BuyerID     uuid.UUID `json:"buyer_id"`
	CompanyName string    `json:"company_name"`
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty"`
	MatchScore  int       `json:"match_score"`
	Tier        Tier      `json:"tier"`
	TierLabel   string    `json:"tier_label"`
	MarketMatch bool      `json:"market_match"`
}

// Evaluate computes a single buyer's match result against a lead
func (e *Engine) Evaluate(lead models.Lead, buyer models.Buyer) MatchResult {
	marketMatch := e.policy.ServesMarket(buyer.TargetMarketsText(), lead.MarketName())
	tier := TierOf(buyer.Tier, buyer.NotesText())

	return MatchResult{
		BuyerID:     buyer.ID,
		CompanyName: buyer.CompanyName,
		Phone:       buyer.Phone,
		Email:       buyer.Email,
		MatchScore:  Score(tier, marketMatch, buyer.Reliability()),
		Tier:        tier,
		TierLabel:   tier.Label(),
		MarketMatch: marketMatch,
	}
}

// RankBuyers filters buyers to those serving the lead's market, orders them by
// tier ascending then score descending, and truncates to limit when limit > 0.
// Buyers tied on tier and score keep their input order.
func (e *Engine) RankBuyers(lead models.Lead, buyers []models.Buyer, limit int) []MatchResult {
	results := make([]MatchResult, 0, len(buyers))
	for _, buyer := range buyers {
		if !e.policy.ServesMarket(buyer.TargetMarketsText(), lead.MarketName()) {
			continue
		}
		results = append(results, e.Evaluate(lead, buyer))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Tier != results[j].Tier {
			return results[i].Tier < results[j].Tier
		}
		return results[i].MatchScore > results[j].MatchScore
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}

// RankBuyers ranks buyers with the default policy
func RankBuyers(lead models.Lead, buyers []models.Buyer, limit int) []MatchResult {
	return NewDefaultEngine().RankBuyers(lead, buyers, limit)
}
