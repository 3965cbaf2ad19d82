package viability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		signals    Signals
		score      int
		viable     bool
		indicators []Indicator
	}{
		{
			name:       "no indicators",
			signals:    Signals{},
			score:      0,
			viable:     false,
			indicators: []Indicator{},
		},
		{
			name:       "one year delinquent",
			signals:    Signals{TaxYearsDelinquent: 1},
			score:      25,
			indicators: []Indicator{TaxDelinquent1Year},
		},
		{
			name:       "five years delinquent counts as 3+",
			signals:    Signals{TaxYearsDelinquent: 5},
			score:      50,
			indicators: []Indicator{TaxDelinquent3PlusYears},
		},
		{
			name:       "probate without death",
			signals:    Signals{ProbateOpen: true},
			score:      35,
			indicators: []Indicator{ProbateOpen},
		},
		{
			name:       "recent death alone does not score",
			signals:    Signals{RecentDeath: true},
			score:      0,
			indicators: []Indicator{},
		},
		{
			name:       "foreclosure and lis pendens reach threshold",
			signals:    Signals{ForeclosureActive: true, LisPendens: true},
			score:      85,
			viable:     true,
			indicators: []Indicator{ForeclosureActive, LisPendens},
		},
		{
			name:       "minor code violations",
			signals:    Signals{CodeViolations: []Violation{{Description: "tall grass"}}},
			score:      25,
			indicators: []Indicator{CodeViolations},
		},
		{
			name: "many violations are serious",
			signals: Signals{CodeViolations: []Violation{
				{Description: "a"}, {Description: "b"}, {Description: "c"}, {Description: "d"},
			}},
			score:      35,
			indicators: []Indicator{CodeViolationsSerious},
		},
		{
			name:       "abandoned plus bankruptcy",
			signals:    Signals{AbandonedProperty: true, Bankruptcy: true},
			score:      85,
			viable:     true,
			indicators: []Indicator{Bankruptcy, AbandonedProperty},
		},
		{
			name: "capped at 100",
			signals: Signals{
				TaxYearsDelinquent: 2,
				ProbateOpen:        true,
				RecentDeath:        true,
				CodeViolations:     []Violation{{Serious: true}},
			},
			score:      100,
			viable:     true,
			indicators: []Indicator{TaxDelinquent2Years, RecentDeathProbate, CodeViolationsSerious},
		},
		{
			name:       "exactly at threshold",
			signals:    Signals{TaxYearsDelinquent: 1, ProbateOpen: true},
			score:      60,
			viable:     true,
			indicators: []Indicator{TaxDelinquent1Year, ProbateOpen},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.signals)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.viable, result.Viable)
			assert.Equal(t, tt.indicators, result.Indicators)
		})
	}
}

func TestBreakdown(t *testing.T) {
	assert.Equal(t, "No distress indicators found", Breakdown(nil))

	result := Score(Signals{TaxYearsDelinquent: 2, ProbateOpen: true, RecentDeath: true})
	assert.Equal(t, "2yr unpaid taxes + Recent death + probate", result.Breakdown)
}

func TestSignalsHasAny(t *testing.T) {
	assert.False(t, Signals{}.HasAny())
	assert.False(t, Signals{RecentDeath: true}.HasAny())
	assert.True(t, Signals{DeedInLieu: true}.HasAny())
}

func TestSummarize(t *testing.T) {
	results := []Result{
		Score(Signals{AbandonedProperty: true, DeedInLieu: true}),
		Score(Signals{ForeclosureActive: true, Bankruptcy: true}),
		Score(Signals{TaxYearsDelinquent: 1, ProbateOpen: true}),
		Score(Signals{TaxYearsDelinquent: 1}),
		Score(Signals{}),
		Score(Signals{TaxYearsDelinquent: 1, ForeclosureActive: true, Bankruptcy: true}),
	}

	summary := Summarize(results)
	assert.Equal(t, 6, summary.TotalProperties)
	assert.Equal(t, 4, summary.ViableLeads)
	assert.Equal(t, 66.7, summary.ViablePercentage)
	assert.Equal(t, map[string]int{
		"90-100": 2,
		"70-89":  1,
		"60-69":  1,
		"0-59":   2,
	}, summary.ScoreDistribution)

	require.Len(t, summary.MostCommonIndicators, 5)
	assert.Equal(t, TaxDelinquent1Year, summary.MostCommonIndicators[0].Indicator)
	assert.Equal(t, 3, summary.MostCommonIndicators[0].Count)
	assert.Equal(t, "1yr unpaid taxes", summary.MostCommonIndicators[0].Label)
	for i := 1; i < len(summary.MostCommonIndicators); i++ {
		assert.GreaterOrEqual(t, summary.MostCommonIndicators[i-1].Count, summary.MostCommonIndicators[i].Count)
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.TotalProperties)
	assert.Equal(t, 0.0, summary.ViablePercentage)
	assert.NotNil(t, summary.MostCommonIndicators)
	assert.Equal(t, 0, summary.ScoreDistribution["0-59"])
}
