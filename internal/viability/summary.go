package viability

import (
	"math"
	"sort"
)

const topIndicatorCount = 5

// Score distribution bucket keys
const (
	Bucket90To100 = "90-100"
	Bucket70To89  = "70-89"
	Bucket60To69  = "60-69"
	Bucket0To59   = "0-59"
)

// IndicatorCount is how often an indicator fired across a batch
type IndicatorCount struct {
	Indicator Indicator `json:"indicator"`
	Label     string    `json:"label"`
	Count     int       `json:"count"`
}

// Summary describes a scored batch of properties
type Summary struct {
	TotalProperties      int              `json:"total_properties"`
	ViableLeads          int              `json:"viable_leads"`
	ViablePercentage     float64          `json:"viable_percentage"`
	ScoreDistribution    map[string]int   `json:"score_distribution"`
	MostCommonIndicators []IndicatorCount `json:"most_common_indicators"`
}

// Summarize aggregates a batch of results
func Summarize(results []Result) Summary {
	summary := Summary{
		TotalProperties: len(results),
		ScoreDistribution: map[string]int{
			Bucket90To100: 0,
			Bucket70To89:  0,
			Bucket60To69:  0,
			Bucket0To59:   0,
		},
		MostCommonIndicators: []IndicatorCount{},
	}

	counts := make(map[Indicator]int)
	var firstSeen []Indicator

	for _, r := range results {
		if r.Viable {
			summary.ViableLeads++
		}
		summary.ScoreDistribution[bucketFor(r.Score)]++

		for _, ind := range r.Indicators {
			if counts[ind] == 0 {
				firstSeen = append(firstSeen, ind)
			}
			counts[ind]++
		}
	}

	if len(results) > 0 {
		pct := 100 * float64(summary.ViableLeads) / float64(len(results))
		summary.ViablePercentage = math.Round(pct*10) / 10
	}

	for _, ind := range firstSeen {
		summary.MostCommonIndicators = append(summary.MostCommonIndicators, IndicatorCount{
			Indicator: ind,
			Label:     ind.Label(),
			Count:     counts[ind],
		})
	}
	sort.SliceStable(summary.MostCommonIndicators, func(i, j int) bool {
		return summary.MostCommonIndicators[i].Count > summary.MostCommonIndicators[j].Count
	})
	if len(summary.MostCommonIndicators) > topIndicatorCount {
		summary.MostCommonIndicators = summary.MostCommonIndicators[:topIndicatorCount]
	}

	return summary
}

func bucketFor(score int) string {
	switch {
	case score >= 90:
		return Bucket90To100
	case score >= 70:
		return Bucket70To89
	case score >= ViableThreshold:
		return Bucket60To69
	default:
		return Bucket0To59
	}
}
