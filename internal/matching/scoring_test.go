package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

func ratingPtr(v float64) *float64 { return &v }

func greenClassifier() ComplianceClassifier {
	return ClassifierFunc(func(*models.Driver) models.ComplianceStatus { return models.ComplianceGreen })
}

func TestScorer_ReeferDriverInMiami(t *testing.T) {
	driver := models.Driver{
		ID:           "drv-1",
		TrailerTypes: []string{"reefer"},
		Availability: models.AvailabilityAvailable,
		Rating:       ratingPtr(4.5),
		Location:     "Miami, FL",
	}
	load := models.Load{ID: "load-1", TrailerType: "refrigerated", Origin: "Miami, FL", Status: models.LoadStatusPending}

	assert.True(t, IsEquipmentCompatible(&driver, &load))

	b := NewScorer(nil, greenClassifier()).Score(context.Background(), &driver, &load)
	assert.Equal(t, Breakdown{
		VehicleMatch:       25,
		QualificationMatch: 20,
		LocationScore:      35,
		RatingScore:        9,
		ComplianceScore:    10,
	}, b)
	assert.Equal(t, 99, b.Total())
}

func TestScorer_UnresolvedLocationIsNeutral(t *testing.T) {
	geo := &stubGeocoder{coord: Coordinate{Lat: 41.2565, Lng: -95.9345}}
	scorer := NewScorer(NewGeocodingResolver(geo), greenClassifier())

	driver := models.Driver{Location: "Omaha, NE", TrailerTypes: []string{"reefer"}}
	load := models.Load{Origin: "Miami, FL", TrailerType: "reefer"}

	b := scorer.Score(context.Background(), &driver, &load)
	assert.Equal(t, 10, b.LocationScore)
	assert.Equal(t, int32(0), geo.calls.Load())
}

func TestVehicleScore(t *testing.T) {
	tests := []struct {
		name   string
		driver models.Driver
		load   models.Load
		want   int
	}{
		{"explicit trailer type", models.Driver{}, models.Load{TrailerType: "flatbed"}, 25},
		{"legacy requirement matched", models.Driver{TrailerTypes: []string{"refrigerated"}}, models.Load{RequiredQualifications: []string{"Reefer", "TWIC"}}, 25},
		{"legacy requirement unmatched", models.Driver{TrailerTypes: []string{"dry van"}}, models.Load{RequiredQualifications: []string{"Reefer"}}, 15},
		{"unconstrained", models.Driver{TrailerTypes: []string{"dry van"}}, models.Load{}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vehicleScore(&tt.driver, &tt.load))
		})
	}
}

func TestQualificationScore(t *testing.T) {
	load := models.Load{RequiredQualifications: []string{"TWIC", "Hazmat", "Doubles", "Reefer"}}

	assert.Equal(t, 0, qualificationScore(&models.Driver{}, &load))
	assert.Equal(t, 7, qualificationScore(&models.Driver{Certifications: []string{"hazmat"}}, &load))
	assert.Equal(t, 13, qualificationScore(&models.Driver{Certifications: []string{"TWIC", "dangerous goods"}}, &load))
	assert.Equal(t, 20, qualificationScore(&models.Driver{Certifications: []string{"TWIC", "HAZMAT", "doubles"}}, &load))
	assert.Equal(t, 20, qualificationScore(&models.Driver{}, &models.Load{RequiredQualifications: []string{"Flatbed", " "}}))
}

func TestRatingScore(t *testing.T) {
	assert.Equal(t, 5, ratingScore(&models.Driver{}))
	assert.Equal(t, 5, ratingScore(&models.Driver{Rating: ratingPtr(0)}))
	assert.Equal(t, 5, ratingScore(&models.Driver{Rating: ratingPtr(-2)}))
	assert.Equal(t, 2, ratingScore(&models.Driver{Rating: ratingPtr(1)}))
	assert.Equal(t, 9, ratingScore(&models.Driver{Rating: ratingPtr(4.5)}))
	assert.Equal(t, 10, ratingScore(&models.Driver{Rating: ratingPtr(5)}))
	assert.Equal(t, 10, ratingScore(&models.Driver{Rating: ratingPtr(7)}))
}

func TestComplianceScoreFor(t *testing.T) {
	assert.Equal(t, 10, ComplianceScoreFor(models.ComplianceGreen))
	assert.Equal(t, 5, ComplianceScoreFor(models.ComplianceYellow))
	assert.Equal(t, 0, ComplianceScoreFor(models.ComplianceRed))
	assert.Equal(t, 0, ComplianceScoreFor(models.ComplianceUnknown))
	assert.Equal(t, 0, ComplianceScoreFor(""))
}

func TestLocationScoreForDistance(t *testing.T) {
	assert.Equal(t, 35, LocationScoreForDistance(0))
	assert.Equal(t, 35, LocationScoreForDistance(25))
	assert.Equal(t, 33, LocationScoreForDistance(25.01))
	assert.Equal(t, 30, LocationScoreForDistance(77))
	assert.Equal(t, 23, LocationScoreForDistance(206))
	assert.Equal(t, 10, LocationScoreForDistance(1000))
	assert.Equal(t, 3, LocationScoreForDistance(2500))
	assert.Equal(t, 1, LocationScoreForDistance(2501))

	prev := LocationScoreForDistance(0)
	for miles := 0.0; miles <= 4000; miles += 0.5 {
		s := LocationScoreForDistance(miles)
		assert.LessOrEqual(t, s, prev, "score rose at %.1f miles", miles)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, MaxLocationScore)
		prev = s
	}
}

func TestScorer_BreakdownBounds(t *testing.T) {
	drivers := []models.Driver{
		{},
		{Location: "Seattle, WA", VehicleType: "flatbed", Rating: ratingPtr(5)},
		{Location: "Miami, FL", TrailerTypes: []string{"reefer", "dry van"}, Certifications: []string{"TWIC"}, Rating: ratingPtr(0.2)},
		{Location: "Omaha, NE", Rating: ratingPtr(12)},
	}
	loads := []models.Load{
		{},
		{Origin: "Miami, FL", TrailerType: "reefer"},
		{Origin: "Dallas, TX", RequiredQualifications: []string{"Flatbed", "TWIC", "Hazmat"}},
		{Origin: "nowhere", RequiredQualifications: []string{"", "Tanker"}},
	}
	statuses := []models.ComplianceStatus{models.ComplianceGreen, models.ComplianceYellow, models.ComplianceRed, models.ComplianceUnknown}

	for _, status := range statuses {
		s := NewScorer(nil, ClassifierFunc(func(*models.Driver) models.ComplianceStatus { return status }))
		for i := range drivers {
			for j := range loads {
				b := s.Score(context.Background(), &drivers[i], &loads[j])
				assert.True(t, b.VehicleMatch >= 0 && b.VehicleMatch <= MaxVehicleScore)
				assert.True(t, b.QualificationMatch >= 0 && b.QualificationMatch <= MaxQualificationScore)
				assert.True(t, b.LocationScore >= 0 && b.LocationScore <= MaxLocationScore)
				assert.True(t, b.RatingScore >= 0 && b.RatingScore <= MaxRatingScore)
				assert.True(t, b.ComplianceScore >= 0 && b.ComplianceScore <= MaxComplianceScore)
				assert.True(t, b.Total() >= 0 && b.Total() <= 100)
			}
		}
	}
	assert.Equal(t, 100, MaxVehicleScore+MaxQualificationScore+MaxLocationScore+MaxRatingScore+MaxComplianceScore)
}

func TestScorer_NilClassifierScoresZeroCompliance(t *testing.T) {
	b := NewScorer(nil, nil).Score(context.Background(), &models.Driver{}, &models.Load{})
	assert.Equal(t, 0, b.ComplianceScore)
}
