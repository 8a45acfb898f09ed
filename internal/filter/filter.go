// Package filter holds the inclusion policy shared by every source adapter:
// junior-title exclusion and US-centric location acceptance.
package filter

import "strings"

// LocationRule identifies which row of the location decision table fired.
type LocationRule int

// Location rules in precedence order; the first match wins.
const (
	RuleRemoteNoLocation LocationRule = iota + 1
	RuleNoLocation
	RuleOutsideUS
	RuleNonUSOnly
	RuleNonUSWithUS
	RuleUS
	RuleRemoteGlobal
	RuleNorthAmerica
	RuleUnrecognized
)

// LocationDecision is the outcome of classifying a location string.
type LocationDecision struct {
	Accept bool
	Rule   LocationRule
}

// IsExcludedTitle reports whether the title carries a junior-level signal
// (intern, junior, jr, entry-level, graduate, trainee) as a whole word.
func IsExcludedTitle(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	return juniorPattern.MatchString(title)
}

// IsLocationAcceptable reports whether a listing at location should be kept.
// Unknown or ambiguous locations are accepted; only explicit non-US signals reject.
func IsLocationAcceptable(location, locationType string) bool {
	return ClassifyLocation(location, locationType).Accept
}

// ClassifyLocation evaluates the location decision table.
func ClassifyLocation(location, locationType string) LocationDecision {
	loc := strings.TrimSpace(location)

	if loc == "" {
		if strings.EqualFold(strings.TrimSpace(locationType), "REMOTE") {
			return LocationDecision{Accept: true, Rule: RuleRemoteNoLocation}
		}
		return LocationDecision{Accept: true, Rule: RuleNoLocation}
	}

	if outsideUSPattern.MatchString(loc) {
		return LocationDecision{Accept: false, Rule: RuleOutsideUS}
	}

	hasUS := usPattern.MatchString(loc) || usCodePattern.MatchString(loc) || usStatePattern.MatchString(loc)
	if nonUSPattern.MatchString(loc) {
		if !hasUS {
			return LocationDecision{Accept: false, Rule: RuleNonUSOnly}
		}
		return LocationDecision{Accept: true, Rule: RuleNonUSWithUS}
	}

	switch {
	case hasUS:
		return LocationDecision{Accept: true, Rule: RuleUS}
	case remotePattern.MatchString(loc):
		return LocationDecision{Accept: true, Rule: RuleRemoteGlobal}
	case northAmerica.MatchString(loc):
		return LocationDecision{Accept: true, Rule: RuleNorthAmerica}
	default:
		return LocationDecision{Accept: true, Rule: RuleUnrecognized}
	}
}

// Verdict is the combined title/location outcome for one listing.
type Verdict int

// Verdict values
const (
	Keep Verdict = iota
	SkipTitle
	SkipLocation
)

// Check applies the title filter, then the location filter.
func Check(title, location, locationType string) Verdict {
	if IsExcludedTitle(title) {
		return SkipTitle
	}
	if !IsLocationAcceptable(location, locationType) {
		return SkipLocation
	}
	return Keep
}
