package geocoding

import (
	"strings"

	"golang.org/x/text/cases"
)

var stateAbbrevs = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// CanonicalRegion maps a state name or abbreviation, in any case, to its
// two-letter abbreviation. Unknown names are upper-cased as-is.
func CanonicalRegion(region string) string {
	region = strings.Join(strings.Fields(region), " ")
	if region == "" {
		return ""
	}
	if abbr, ok := stateAbbrevs[cases.Fold().String(region)]; ok {
		return abbr
	}
	return strings.ToUpper(region)
}

// CanonicalRegions canonicalizes a region list, preserving order and dropping
// blanks and repeats. It returns nil when nothing remains.
func CanonicalRegions(regions []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range regions {
		c := CanonicalRegion(r)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ParseRegions splits a comma-separated list like "TX,AZ,New Mexico".
func ParseRegions(s string) []string {
	return CanonicalRegions(strings.Split(s, ","))
}

func regionAllowed(region string, allowed []string) bool {
	c := CanonicalRegion(region)
	if c == "" {
		return false
	}
	for _, a := range allowed {
		if a == c {
			return true
		}
	}
	return false
}
