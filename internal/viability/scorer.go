package viability

import "strings"

// Indicator identifies a distress signal that contributes to a lead's viability
type Indicator string

const (
	TaxDelinquent1Year      Indicator = "tax_delinquent_1_year"
	TaxDelinquent2Years     Indicator = "tax_delinquent_2_years"
	TaxDelinquent3PlusYears Indicator = "tax_delinquent_3plus_years"
	ProbateOpen             Indicator = "probate_open"
	RecentDeathProbate      Indicator = "recent_death_probate"
	ForeclosureActive       Indicator = "foreclosure_active"
	LisPendens              Indicator = "lis_pendens"
	CodeViolations          Indicator = "code_violations"
	CodeViolationsSerious   Indicator = "code_violations_serious"
	Bankruptcy              Indicator = "bankruptcy"
	AbandonedProperty       Indicator = "abandoned_property"
	DeedInLieu              Indicator = "deed_in_lieu"
)

const (
	// ViableThreshold is the minimum score for a lead to be worked
	ViableThreshold = 60
	maxScore        = 100

	seriousViolationCount = 3
)

var weights = map[Indicator]int{
	TaxDelinquent1Year:      25,
	TaxDelinquent2Years:     40,
	TaxDelinquent3PlusYears: 50,
	ProbateOpen:             35,
	RecentDeathProbate:      50,
	ForeclosureActive:       45,
	LisPendens:              40,
	CodeViolations:          25,
	CodeViolationsSerious:   35,
	Bankruptcy:              30,
	AbandonedProperty:       55,
	DeedInLieu:              45,
}

var labels = map[Indicator]string{
	TaxDelinquent1Year:      "1yr unpaid taxes",
	TaxDelinquent2Years:     "2yr unpaid taxes",
	TaxDelinquent3PlusYears: "3+ yrs unpaid taxes",
	ProbateOpen:             "Estate in probate",
	RecentDeathProbate:      "Recent death + probate",
	ForeclosureActive:       "Active foreclosure",
	LisPendens:              "Foreclosure notice filed",
	CodeViolations:          "Building violations",
	CodeViolationsSerious:   "Serious violations",
	Bankruptcy:              "Bankruptcy filed",
	AbandonedProperty:       "Property abandoned",
	DeedInLieu:              "Deed-in-lieu settlement",
}

// Weight returns the points an indicator contributes
func (i Indicator) Weight() int {
	return weights[i]
}

// Label returns the human-readable indicator name
func (i Indicator) Label() string {
	if label, ok := labels[i]; ok {
		return label
	}
	return string(i)
}

// Violation is a single code-enforcement record
type Violation struct {
	Description string `json:"description,omitempty"`
	Serious     bool   `json:"serious"`
}

// Signals are the distress facts known about a property
type Signals struct {
	TaxYearsDelinquent int         `json:"tax_years_delinquent"`
	ProbateOpen        bool        `json:"probate_open"`
	RecentDeath        bool        `json:"recent_death"`
	ForeclosureActive  bool        `json:"foreclosure_active"`
	LisPendens         bool        `json:"lis_pendens"`
	CodeViolations     []Violation `json:"code_violations,omitempty"`
	Bankruptcy         bool        `json:"bankruptcy"`
	AbandonedProperty  bool        `json:"abandoned_property"`
	DeedInLieu         bool        `json:"deed_in_lieu"`
}

// HasAny reports whether any distress signal is present
func (s Signals) HasAny() bool {
	return len(Evaluate(s)) > 0
}

// Result is the scored viability of a property
type Result struct {
	Score      int         `json:"viability_score"`
	Viable     bool        `json:"is_viable"`
	Indicators []Indicator `json:"indicators"`
	Breakdown  string      `json:"score_breakdown"`
}

// Evaluate returns the indicators triggered by a set of signals, in scoring order
func Evaluate(s Signals) []Indicator {
	triggered := make([]Indicator, 0, 4)

	switch {
	case s.TaxYearsDelinquent >= 3:
		triggered = append(triggered, TaxDelinquent3PlusYears)
	case s.TaxYearsDelinquent == 2:
		triggered = append(triggered, TaxDelinquent2Years)
	case s.TaxYearsDelinquent == 1:
		triggered = append(triggered, TaxDelinquent1Year)
	}

	if s.ProbateOpen {
		if s.RecentDeath {
			triggered = append(triggered, RecentDeathProbate)
		} else {
			triggered = append(triggered, ProbateOpen)
		}
	}

	if s.ForeclosureActive {
		triggered = append(triggered, ForeclosureActive)
	}
	if s.LisPendens {
		triggered = append(triggered, LisPendens)
	}

	if len(s.CodeViolations) > 0 {
		if len(s.CodeViolations) > seriousViolationCount || anySerious(s.CodeViolations) {
			triggered = append(triggered, CodeViolationsSerious)
		} else {
			triggered = append(triggered, CodeViolations)
		}
	}

	if s.Bankruptcy {
		triggered = append(triggered, Bankruptcy)
	}
	if s.AbandonedProperty {
		triggered = append(triggered, AbandonedProperty)
	}
	if s.DeedInLieu {
		triggered = append(triggered, DeedInLieu)
	}

	return triggered
}

// Score computes a 0-100 viability score. Scores of 60 or more are viable.
func Score(s Signals) Result {
	indicators := Evaluate(s)

	total := 0
	for _, ind := range indicators {
		total += ind.Weight()
	}
	if total > maxScore {
		total = maxScore
	}

	return Result{
		Score:      total,
		Viable:     total >= ViableThreshold,
		Indicators: indicators,
		Breakdown:  Breakdown(indicators),
	}
}

// Breakdown renders triggered indicators as a readable sentence
func Breakdown(indicators []Indicator) string {
	if len(indicators) == 0 {
		return "No distress indicators found"
	}

	parts := make([]string, len(indicators))
	for i, ind := range indicators {
		parts[i] = ind.Label()
	}
	return strings.Join(parts, " + ")
}

func anySerious(violations []Violation) bool {
	for _, v := range violations {
		if v.Serious {
			return true
		}
	}
	return false
}
