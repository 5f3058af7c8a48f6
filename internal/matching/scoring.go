// internal/matching/scoring.go
package matching

import (
	"context"
	"math"
	"strings"

	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

const (
	MaxVehicleScore       = 25
	MaxQualificationScore = 20
	MaxLocationScore      = 35
	MaxRatingScore        = 10
	MaxComplianceScore    = 10

	// UnresolvedLocationScore is awarded when either location cannot be
	// resolved to coordinates.
	UnresolvedLocationScore = 10

	partialVehicleScore   = 15
	neutralRatingScore    = 5
	yellowComplianceScore = 5
)

// Breakdown holds the five weighted sub-scores of a match. Their maxima sum
// to 100.
type Breakdown struct {
	VehicleMatch       int `json:"vehicleMatch"`
	QualificationMatch int `json:"qualificationMatch"`
	LocationScore      int `json:"locationScore"`
	RatingScore        int `json:"ratingScore"`
	ComplianceScore    int `json:"complianceScore"`
}

func (b Breakdown) Total() int {
	return b.VehicleMatch + b.QualificationMatch + b.LocationScore + b.RatingScore + b.ComplianceScore
}

// Scorer computes match breakdowns. The resolver decides whether locations
// come from the static table only or may hit a geocoder; the weighting is
// the same either way.
type Scorer struct {
	resolver   CoordinateResolver
	classifier ComplianceClassifier
}

// NewScorer returns a Scorer. A nil resolver means FallbackResolver; a nil
// classifier scores every driver as Unknown compliance.
func NewScorer(resolver CoordinateResolver, classifier ComplianceClassifier) *Scorer {
	if resolver == nil {
		resolver = FallbackResolver{}
	}
	return &Scorer{resolver: resolver, classifier: classifier}
}

// Resolver returns the coordinate resolver used for location scoring.
func (s *Scorer) Resolver() CoordinateResolver {
	return s.resolver
}

// Score assumes the pair already passed IsEquipmentCompatible.
func (s *Scorer) Score(ctx context.Context, driver *models.Driver, load *models.Load) Breakdown {
	return s.score(ctx, driver, load, classify(s.classifier, driver))
}

func (s *Scorer) score(ctx context.Context, driver *models.Driver, load *models.Load, status models.ComplianceStatus) Breakdown {
	return Breakdown{
		VehicleMatch:       vehicleScore(driver, load),
		QualificationMatch: qualificationScore(driver, load),
		LocationScore:      s.locationScore(ctx, driver.Location, load.Origin),
		RatingScore:        ratingScore(driver),
		ComplianceScore:    ComplianceScoreFor(status),
	}
}

func vehicleScore(driver *models.Driver, load *models.Load) int {
	if strings.TrimSpace(load.TrailerType) != "" {
		return MaxVehicleScore
	}

	trailerReqs, _ := splitRequirements(load)
	if len(trailerReqs) == 0 {
		return partialVehicleScore
	}

	capabilities := driver.Capabilities()
	for _, req := range trailerReqs {
		for _, c := range capabilities {
			if TermsMatch(c, req) {
				return MaxVehicleScore
			}
		}
	}
	return partialVehicleScore
}

func qualificationScore(driver *models.Driver, load *models.Load) int {
	_, certs := splitRequirements(load)
	if len(certs) == 0 {
		return MaxQualificationScore
	}

	matched := 0
	for _, req := range certs {
		for _, cert := range driver.Certifications {
			if TermsMatch(cert, req) {
				matched++
				break
			}
		}
	}
	return int(math.Round(MaxQualificationScore * float64(matched) / float64(len(certs))))
}

func (s *Scorer) locationScore(ctx context.Context, driverLocation, loadOrigin string) int {
	from, ok := s.resolver.Resolve(ctx, driverLocation)
	if !ok {
		return UnresolvedLocationScore
	}
	to, ok := s.resolver.Resolve(ctx, loadOrigin)
	if !ok {
		return UnresolvedLocationScore
	}
	return LocationScoreForDistance(DistanceMiles(from, to))
}

var distanceTiers = []struct {
	maxMiles float64
	score    int
}{
	{25, 35},
	{50, 33},
	{100, 30},
	{200, 27},
	{350, 23},
	{500, 18},
	{750, 14},
	{1000, 10},
	{1500, 6},
	{2500, 3},
}

// LocationScoreForDistance maps a driver-to-origin distance onto the 0-35
// location scale. It never increases with distance.
func LocationScoreForDistance(miles float64) int {
	for _, tier := range distanceTiers {
		if miles <= tier.maxMiles {
			return tier.score
		}
	}
	return 1
}

func ratingScore(driver *models.Driver) int {
	rating, ok := driver.RatingValue()
	if !ok || rating <= 0 || math.IsNaN(rating) {
		return neutralRatingScore
	}
	score := int(math.Round(rating / 5 * MaxRatingScore))
	if score > MaxRatingScore {
		return MaxRatingScore
	}
	return score
}

// ComplianceScoreFor maps a compliance status onto the 0-10 scale.
func ComplianceScoreFor(status models.ComplianceStatus) int {
	switch status {
	case models.ComplianceGreen:
		return MaxComplianceScore
	case models.ComplianceYellow:
		return yellowComplianceScore
	default:
		return 0
	}
}
