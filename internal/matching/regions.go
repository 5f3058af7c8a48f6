// internal/matching/regions.go
package matching

import (
	"strings"
	"unicode"
)

// Region is a U.S. state for which external geocoding may be used.
type Region struct {
	Abbreviation string
	Name         string
}

// DefaultGeocodingRegions is the allow-list of states whose locations may be
// sent to the external geocoder when the fallback table has no entry.
var DefaultGeocodingRegions = []Region{
	{"FL", "Florida"},
	{"GA", "Georgia"},
	{"AL", "Alabama"},
	{"MS", "Mississippi"},
	{"LA", "Louisiana"},
	{"TX", "Texas"},
	{"SC", "South Carolina"},
	{"NC", "North Carolina"},
	{"TN", "Tennessee"},
	{"WV", "West Virginia"},
	{"ID", "Idaho"},
}

// RegionSet answers whether free-text input falls within one of its regions.
type RegionSet struct {
	abbreviations map[string]bool
	names         []string
}

func NewRegionSet(regions []Region) *RegionSet {
	rs := &RegionSet{abbreviations: make(map[string]bool)}
	for _, r := range regions {
		if r.Abbreviation != "" {
			rs.abbreviations[strings.ToLower(r.Abbreviation)] = true
		}
		if r.Name != "" {
			rs.names = append(rs.names, strings.ToLower(r.Name))
		}
	}
	return rs
}

// ParseRegions turns config entries such as "FL" or "FL:Florida" into regions.
// A bare abbreviation is completed from DefaultGeocodingRegions when known.
func ParseRegions(entries []string) []Region {
	known := make(map[string]string, len(DefaultGeocodingRegions))
	for _, r := range DefaultGeocodingRegions {
		known[r.Abbreviation] = r.Name
	}

	var out []Region
	for _, e := range entries {
		abbr, name, _ := strings.Cut(strings.TrimSpace(e), ":")
		abbr = strings.ToUpper(strings.TrimSpace(abbr))
		if abbr == "" {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = known[abbr]
		}
		out = append(out, Region{Abbreviation: abbr, Name: name})
	}
	return out
}

// Contains matches the state abbreviation as a standalone token (which covers
// the usual ", FL" suffix) or the full state name as a substring.
func (rs *RegionSet) Contains(location string) bool {
	if rs == nil {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(location))
	if lower == "" {
		return false
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range tokens {
		if rs.abbreviations[tok] {
			return true
		}
	}

	for _, name := range rs.names {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
