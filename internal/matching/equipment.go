// internal/matching/equipment.go
package matching

import (
	"strings"

	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

// trailerKeywords identify legacy requiredQualifications entries that express
// a trailer requirement rather than a certification.
var trailerKeywords = []string{
	"van", "reefer", "flatbed", "tanker", "hopper", "deck", "refrigerated", "lowboy",
}

// IsTrailerRequirement reports whether a qualification string names a trailer type.
func IsTrailerRequirement(requirement string) bool {
	lower := strings.ToLower(requirement)
	for _, kw := range trailerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitRequirements separates a load's legacy qualifications into trailer
// requirements and certification requirements. Blank entries are dropped.
func splitRequirements(load *models.Load) (trailer, certs []string) {
	for _, req := range load.RequiredQualifications {
		if strings.TrimSpace(req) == "" {
			continue
		}
		if IsTrailerRequirement(req) {
			trailer = append(trailer, req)
		} else {
			certs = append(certs, req)
		}
	}
	return trailer, certs
}

func anyCapabilityMatches(capabilities []string, requirement string) bool {
	for _, c := range capabilities {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(requirement)) || TermsMatch(c, requirement) {
			return true
		}
	}
	return false
}

// IsEquipmentCompatible is the hard equipment gate: a driver failing it is
// never ranked for the load, whatever else it scores.
func IsEquipmentCompatible(driver *models.Driver, load *models.Load) bool {
	capabilities := driver.Capabilities()

	if strings.TrimSpace(load.TrailerType) != "" {
		return anyCapabilityMatches(capabilities, load.TrailerType)
	}

	trailerReqs, _ := splitRequirements(load)
	if len(trailerReqs) > 0 {
		for _, req := range trailerReqs {
			if anyCapabilityMatches(capabilities, req) {
				return true
			}
		}
		return false
	}

	return true
}
