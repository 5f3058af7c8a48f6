// internal/matching/labels.go
package matching

// MatchQualityLabel turns a 0-100 score into a human-facing label.
func MatchQualityLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent Match"
	case score >= 60:
		return "Good Match"
	case score >= 40:
		return "Fair Match"
	default:
		return "Possible Match"
	}
}

const maxMatchReasons = 2

// MatchReasons returns up to two badges for the strongest factors of a
// match, in fixed priority order.
func MatchReasons(b Breakdown) []string {
	checks := []struct {
		ok     bool
		reason string
	}{
		{b.LocationScore >= 27, "Nearby"},
		{b.VehicleMatch == MaxVehicleScore, "Equipment match"},
		{b.RatingScore >= 9, "Top rated"},
		{b.QualificationMatch == MaxQualificationScore, "Fully qualified"},
		{b.ComplianceScore == MaxComplianceScore, "Compliant"},
	}

	reasons := make([]string, 0, maxMatchReasons)
	for _, c := range checks {
		if !c.ok {
			continue
		}
		reasons = append(reasons, c.reason)
		if len(reasons) == maxMatchReasons {
			break
		}
	}
	return reasons
}
