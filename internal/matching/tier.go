package matching

import "strings"

// Tier is a buyer priority classification. Lower is hotter.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

var tierLabels = map[Tier]string{
	Tier1: "Tier 1 HOT",
	Tier2: "Tier 2 WARM",
	Tier3: "Tier 3 ACTIVE",
}

// ClassifyTier derives a buyer's tier from free-text notes.
// First match wins; empty or unrecognized notes fall through to tier 3.
func ClassifyTier(notes string) Tier {
	lower := strings.ToLower(notes)
	switch {
	case strings.Contains(lower, "tier 1") || strings.Contains(lower, "hot"):
		return Tier1
	case strings.Contains(lower, "tier 2") || strings.Contains(lower, "warm"):
		return Tier2
	default:
		return Tier3
	}
}

// Label returns the human-readable tier label
func (t Tier) Label() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}
	return tierLabels[Tier3]
}

// Valid reports whether t is one of the three known tiers
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier3
}

// TierOf returns the stored tier when the buyer has one, otherwise the
// tier classified from notes.
func TierOf(storedTier int, notes string) Tier {
	if t := Tier(storedTier); t.Valid() {
		return t
	}
	return ClassifyTier(notes)
}
