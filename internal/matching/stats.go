package matching

import "github.com/easyexithomes/leadmatch/internal/models"

// Stats aggregates a lead's full ranked match list
type Stats struct {
	TotalMatches int          `json:"total_matches"`
	Tier1Count   int          `json:"tier1_count"`
	Tier2Count   int          `json:"tier2_count"`
	Tier3Count   int          `json:"tier3_count"`
	TopMatch     *MatchResult `json:"top_match,omitempty"`
	TopScore     *int         `json:"top_score,omitempty"`
}

// MatchStatistics summarizes the untruncated ranking of buyers for a lead.
// With no matches the top-match fields stay nil.
func (e *Engine) MatchStatistics(lead models.Lead, buyers []models.Buyer) Stats {
	return Summarize(e.RankBuyers(lead, buyers, 0))
}

// Summarize builds statistics from an already ranked list
func Summarize(ranked []MatchResult) Stats {
	stats := Stats{TotalMatches: len(ranked)}

	for _, match := range ranked {
		switch match.Tier {
		case Tier1:
			stats.Tier1Count++
		case Tier2:
			stats.Tier2Count++
		default:
			stats.Tier3Count++
		}
	}

	if len(ranked) > 0 {
		top := ranked[0]
		score := top.MatchScore
		stats.TopMatch = &top
		stats.TopScore = &score
	}

	return stats
}

// MatchStatistics computes statistics with the default policy
func MatchStatistics(lead models.Lead, buyers []models.Buyer) Stats {
	return NewDefaultEngine().MatchStatistics(lead, buyers)
}
