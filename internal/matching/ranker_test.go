package matching

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

func reeferDriver(id, location string) models.Driver {
	return models.Driver{
		ID:           id,
		Name:         "Driver " + id,
		Location:     location,
		TrailerTypes: []string{"reefer"},
		Rating:       ratingPtr(5),
		Availability: models.AvailabilityAvailable,
		IsActive:     true,
	}
}

func miamiReeferLoad() *models.Load {
	return &models.Load{ID: "load-1", Origin: "Miami, FL", Destination: "Atlanta, GA", TrailerType: "refrigerated", Status: models.LoadStatusPending}
}

func newTestRanker(t *testing.T, classifier ComplianceClassifier) *Ranker {
	return NewRanker(FallbackResolver{}, classifier, WithRankerLogger(logger.NewTestLogger(t)), WithConcurrency(3))
}

func assertRankingInvariants(t *testing.T, scores []int, ranks []int, best []bool) {
	t.Helper()
	for i := range scores {
		assert.Equal(t, i+1, ranks[i])
		assert.Equal(t, i == 0, best[i])
		if i > 0 {
			assert.GreaterOrEqual(t, scores[i-1], scores[i])
		}
	}
}

func TestFindMatchingDrivers_BestMatch(t *testing.T) {
	driver := reeferDriver("drv-1", "Miami, FL")
	driver.Rating = ratingPtr(4.5)

	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), miamiReeferLoad(), []models.Driver{driver}, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 99, results[0].Score)
	assert.Equal(t, 1, results[0].Rank)
	assert.True(t, results[0].IsBestMatch)
	assert.Equal(t, "drv-1", results[0].Driver.ID)
}

func TestFindMatchingDrivers_IncompatibleEquipmentExcluded(t *testing.T) {
	dryVan := models.Driver{
		ID:           "drv-van",
		VehicleType:  "dry-van",
		Location:     "Miami, FL",
		Rating:       ratingPtr(5),
		Availability: models.AvailabilityAvailable,
	}
	flatbed := reeferDriver("drv-flat", "Seattle, WA")
	flatbed.TrailerTypes = []string{"flatbed"}
	load := &models.Load{ID: "load-2", Origin: "Miami, FL", TrailerType: "flatbed", Status: models.LoadStatusPending}

	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), load, []models.Driver{dryVan, flatbed}, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "drv-flat", results[0].Driver.ID)
	assert.True(t, results[0].IsBestMatch)
}

func TestFindMatchingDrivers_MaxResultsKeepsTopCandidate(t *testing.T) {
	drivers := []models.Driver{
		reeferDriver("orlando", "Orlando, FL"),
		reeferDriver("seattle", "Seattle, WA"),
		reeferDriver("miami", "Miami, FL"),
		reeferDriver("dallas", "Dallas, TX"),
		reeferDriver("atlanta", "Atlanta, GA"),
	}
	opts := DefaultOptions()
	opts.MaxResults = 1

	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), miamiReeferLoad(), drivers, opts)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "miami", results[0].Driver.ID)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, 1, results[0].Rank)
	assert.True(t, results[0].IsBestMatch)
}

func TestFindMatchingDrivers_OrderAndInvariants(t *testing.T) {
	drivers := []models.Driver{
		reeferDriver("seattle", "Seattle, WA"),
		reeferDriver("atlanta", "Atlanta, GA"),
		reeferDriver("miami", "Miami, FL"),
		reeferDriver("dallas", "Dallas, TX"),
		reeferDriver("orlando", "Orlando, FL"),
	}
	opts := DefaultOptions()
	opts.MaxResults = 0

	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), miamiReeferLoad(), drivers, opts)
	require.NoError(t, err)
	require.Len(t, results, 5)

	var ids []string
	scores := make([]int, len(results))
	ranks := make([]int, len(results))
	best := make([]bool, len(results))
	for i, r := range results {
		ids = append(ids, r.Driver.ID)
		scores[i], ranks[i], best[i] = r.Score, r.Rank, r.IsBestMatch
		assert.Equal(t, r.Breakdown.Total(), r.Score)
	}
	assert.Equal(t, []string{"miami", "orlando", "atlanta", "dallas", "seattle"}, ids)
	assertRankingInvariants(t, scores, ranks, best)
}

func TestFindMatchingDrivers_TiesKeepInputOrder(t *testing.T) {
	drivers := []models.Driver{
		reeferDriver("first", "Tampa, FL"),
		reeferDriver("second", "Tampa, FL"),
		reeferDriver("third", "Tampa, FL"),
	}

	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), miamiReeferLoad(), drivers, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Driver.ID)
	assert.Equal(t, "second", results[1].Driver.ID)
	assert.Equal(t, "third", results[2].Driver.ID)
	assert.True(t, results[0].IsBestMatch)
	assert.False(t, results[1].IsBestMatch)
}

func TestFindMatchingDrivers_EligibilityOptions(t *testing.T) {
	onTrip := reeferDriver("on-trip", "Miami, FL")
	onTrip.Availability = models.AvailabilityOnTrip
	yellow := reeferDriver("yellow", "Miami, FL")
	green := reeferDriver("green", "Tampa, FL")

	classifier := ClassifierFunc(func(d *models.Driver) models.ComplianceStatus {
		if d.ID == "yellow" {
			return models.ComplianceYellow
		}
		return models.ComplianceGreen
	})
	ranker := newTestRanker(t, classifier)
	pool := []models.Driver{onTrip, yellow, green}

	results, err := ranker.FindMatchingDrivers(context.Background(), miamiReeferLoad(), pool, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "green", results[0].Driver.ID)

	all := Options{}
	results, err = ranker.FindMatchingDrivers(context.Background(), miamiReeferLoad(), pool, all)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "on-trip", results[0].Driver.ID)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, 95, results[1].Score)

	all.Filters = []func(*models.Driver) bool{func(d *models.Driver) bool { return d.ID != "on-trip" }}
	results, err = ranker.FindMatchingDrivers(context.Background(), miamiReeferLoad(), pool, all)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "yellow", results[0].Driver.ID)
}

func TestFindMatchingDrivers_EmptyPool(t *testing.T) {
	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), miamiReeferLoad(), nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindMatchingDrivers_DoesNotMutatePool(t *testing.T) {
	drivers := []models.Driver{reeferDriver("b", "Tampa, FL"), reeferDriver("a", "Miami, FL")}

	_, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(context.Background(), miamiReeferLoad(), drivers, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "b", drivers[0].ID)
	assert.Equal(t, "a", drivers[1].ID)
}

func TestFindMatchingDrivers_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newTestRanker(t, greenClassifier()).FindMatchingDrivers(ctx, miamiReeferLoad(), []models.Driver{reeferDriver("a", "Miami, FL")}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestFindMatchingDrivers_CancelStopsGeocoding(t *testing.T) {
	geo := &stubGeocoder{coord: Coordinate{Lat: 43.6, Lng: -116.2}, delay: 30 * time.Millisecond}
	ranker := NewRanker(NewGeocodingResolver(geo), greenClassifier(), WithConcurrency(1))

	var drivers []models.Driver
	for _, city := range []string{"Boise, ID", "Nampa, ID", "Meridian, ID", "Eagle, ID", "Caldwell, ID"} {
		drivers = append(drivers, reeferDriver(city, city))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Millisecond)
	defer cancel()

	_, err := ranker.FindMatchingDrivers(ctx, miamiReeferLoad(), drivers, DefaultOptions())
	assert.Error(t, err)
	assert.Less(t, geo.calls.Load(), int32(len(drivers)))
}

func TestFindMatchingLoads(t *testing.T) {
	driver := reeferDriver("drv-1", "Miami, FL")
	loads := []models.Load{
		{ID: "far", Origin: "Dallas, TX", TrailerType: "reefer", Status: models.LoadStatusPending},
		{ID: "matched", Origin: "Miami, FL", TrailerType: "reefer", Status: models.LoadStatusMatched},
		{ID: "flatbed", Origin: "Miami, FL", TrailerType: "flatbed", Status: models.LoadStatusPending},
		{ID: "near", Origin: "Miami, FL", TrailerType: "frozen", Status: models.LoadStatusPending},
		{ID: "open", Origin: "Tampa, FL", Status: models.LoadStatusPending},
	}

	results, err := newTestRanker(t, greenClassifier()).FindMatchingLoads(context.Background(), &driver, loads, DefaultLoadOptions())
	require.NoError(t, err)

	var ids []string
	scores := make([]int, len(results))
	ranks := make([]int, len(results))
	best := make([]bool, len(results))
	for i, r := range results {
		ids = append(ids, r.Load.ID)
		scores[i], ranks[i], best[i] = r.Score, r.Rank, r.IsBestMatch
	}
	assert.Equal(t, []string{"near", "open", "far"}, ids)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, 15+20+23+10+10, results[1].Score)
	assertRankingInvariants(t, scores, ranks, best)
}

func TestFindMatchingLoads_FiltersAndCap(t *testing.T) {
	driver := reeferDriver("drv-1", "Miami, FL")
	loads := []models.Load{
		{ID: "a", Origin: "Miami, FL", Status: models.LoadStatusPending, Price: 500},
		{ID: "b", Origin: "Tampa, FL", Status: models.LoadStatusPending, Price: 2500},
		{ID: "c", Origin: "Atlanta, GA", Status: models.LoadStatusPending, Price: 3000},
	}
	opts := LoadOptions{
		MaxResults: 1,
		Filters:    []func(*models.Load) bool{func(l *models.Load) bool { return l.Price >= 1000 }},
	}

	results, err := newTestRanker(t, greenClassifier()).FindMatchingLoads(context.Background(), &driver, loads, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Load.ID)
	assert.True(t, results[0].IsBestMatch)
}
