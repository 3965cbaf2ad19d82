package matching

import "math"

const (
	maxScore = 100

	marketMatchPoints    = 40.0
	maxReliabilityPoints = 20.0
	reliabilityScale     = 10.0
)

var tierPoints = map[Tier]float64{
	Tier1: 50,
	Tier2: 30,
	Tier3: 10,
}

// Score combines tier, market fit and reliability (0-10 scale) into a 0-100 match score
func Score(tier Tier, marketMatch bool, reliability float64) int {
	points, ok := tierPoints[tier]
	if !ok {
		points = tierPoints[Tier3]
	}

	if marketMatch {
		points += marketMatchPoints
	}

	if reliability > 0 {
		points += math.Min(maxReliabilityPoints, reliability/reliabilityScale*maxReliabilityPoints)
	}

	score := int(math.Round(points))
	if score > maxScore {
		return maxScore
	}
	if score < 0 {
		return 0
	}
	return score
}
