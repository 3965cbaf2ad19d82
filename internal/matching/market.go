package matching

import "strings"

// DefaultMultiMarketMarker is the substring that marks a buyer as serving any market
const DefaultMultiMarketMarker = "multi"

// Policy holds the market-matching choices that used to be implicit defaults
type Policy struct {
	// UnscopedMatchesAll makes a buyer without target markets, or a lead
	// without a market, compatible with everything.
	UnscopedMatchesAll bool `json:"unscoped_matches_all"`
	// MultiMarketMarker is matched case-insensitively inside target markets.
	// Empty disables the multi-market shortcut.
	MultiMarketMarker string `json:"multi_market_marker"`
	// FirstSegmentOnly compares only the part of the lead market before the
	// first comma ("Birmingham, AL" -> "birmingham").
	FirstSegmentOnly bool `json:"first_segment_only"`
}

// DefaultPolicy returns the permissive policy the dashboard has always used
func DefaultPolicy() Policy {
	return Policy{
		UnscopedMatchesAll: true,
		MultiMarketMarker:  DefaultMultiMarketMarker,
		FirstSegmentOnly:   true,
	}
}

// ServesMarket decides whether a buyer's declared service area covers a lead's market.
// This is plain substring containment, not tokenized matching.
func (p Policy) ServesMarket(targetMarkets, leadMarket string) bool {
	if targetMarkets == "" || leadMarket == "" {
		return p.UnscopedMatchesAll
	}

	markets := strings.ToLower(targetMarkets)
	if p.MultiMarketMarker != "" && strings.Contains(markets, strings.ToLower(p.MultiMarketMarker)) {
		return true
	}

	needle := strings.ToLower(leadMarket)
	if p.FirstSegmentOnly {
		needle = strings.TrimSpace(strings.SplitN(needle, ",", 2)[0])
		if needle == "" {
			return p.UnscopedMatchesAll
		}
	}

	return strings.Contains(markets, needle)
}

// MarketMatches applies the default policy
func MarketMatches(targetMarkets, leadMarket string) bool {
	return DefaultPolicy().ServesMarket(targetMarkets, leadMarket)
}
