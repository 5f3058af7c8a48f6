package matching

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
)

func TestMemoryGeocodeCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryGeocodeCache()

	_, found := c.Lookup(ctx, "boise, id")
	assert.False(t, found)

	c.Store(ctx, "boise, id", &Coordinate{Lat: 43.6, Lng: -116.2})
	c.Store(ctx, "nowhere, id", nil)

	coord, found := c.Lookup(ctx, "boise, id")
	require.True(t, found)
	assert.Equal(t, &Coordinate{Lat: 43.6, Lng: -116.2}, coord)

	coord, found = c.Lookup(ctx, "nowhere, id")
	assert.True(t, found)
	assert.Nil(t, coord)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryGeocodeCache_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryGeocodeCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Store(ctx, "boise, id", &Coordinate{Lat: 43.6, Lng: -116.2})
			c.Lookup(ctx, "boise, id")
		}()
	}
	wg.Wait()

	coord, found := c.Lookup(ctx, "boise, id")
	require.True(t, found)
	assert.Equal(t, 43.6, coord.Lat)
	assert.Equal(t, 1, c.Len())
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (*RedisGeocodeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGeocodeCache(client, "", ttl, logger.NewTestLogger(t)), mr
}

func TestRedisGeocodeCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniredisCache(t, time.Hour)

	c.Store(ctx, "boise, id", &Coordinate{Lat: 43.615, Lng: -116.2023})
	c.Store(ctx, "nowhere, id", nil)

	raw, err := mr.Get("geocode:boise, id")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":43.615,"lng":-116.2023}`, raw)

	raw, err = mr.Get("geocode:nowhere, id")
	require.NoError(t, err)
	assert.Equal(t, "null", raw)
	assert.Equal(t, time.Hour, mr.TTL("geocode:boise, id"))

	coord, found := c.Lookup(ctx, "boise, id")
	require.True(t, found)
	assert.Equal(t, Coordinate{Lat: 43.615, Lng: -116.2023}, *coord)

	coord, found = c.Lookup(ctx, "nowhere, id")
	assert.True(t, found)
	assert.Nil(t, coord)

	_, found = c.Lookup(ctx, "never, id")
	assert.False(t, found)
}

func TestRedisGeocodeCache_ZeroTTLPersists(t *testing.T) {
	c, mr := newMiniredisCache(t, 0)
	c.Store(context.Background(), "boise, id", &Coordinate{Lat: 1, Lng: 2})
	assert.Equal(t, time.Duration(0), mr.TTL("geocode:boise, id"))
}

func TestRedisGeocodeCache_ErrorsDegradeToMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniredisCache(t, 0)
	mr.SetError("LOADING server is loading")

	c.Store(ctx, "boise, id", &Coordinate{Lat: 1, Lng: 2})
	_, found := c.Lookup(ctx, "boise, id")
	assert.False(t, found)

	mr.SetError("")
	_, found = c.Lookup(ctx, "boise, id")
	assert.False(t, found)
}

func TestRedisGeocodeCache_ReadErrorAndMalformedEntry(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedisGeocodeCache(db, "geo:", 0, logger.NewNoOpLogger())

	mock.ExpectGet("geo:boise, id").SetErr(errors.New("connection reset"))
	mock.ExpectGet("geo:tulsa").SetVal("not-json")

	_, found := c.Lookup(ctx, "boise, id")
	assert.False(t, found)
	_, found = c.Lookup(ctx, "tulsa")
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTieredGeocodeCache_PromotesSharedHits(t *testing.T) {
	ctx := context.Background()
	shared, _ := newMiniredisCache(t, 0)
	local := NewMemoryGeocodeCache()
	tiered := NewTieredGeocodeCache(local, shared)

	shared.Store(ctx, "boise, id", &Coordinate{Lat: 43.6, Lng: -116.2})

	coord, found := tiered.Lookup(ctx, "boise, id")
	require.True(t, found)
	assert.Equal(t, 43.6, coord.Lat)

	_, inLocal := local.Lookup(ctx, "boise, id")
	assert.True(t, inLocal)

	tiered.Store(ctx, "nowhere, id", nil)
	coord, found = shared.Lookup(ctx, "nowhere, id")
	assert.True(t, found)
	assert.Nil(t, coord)
	_, found = local.Lookup(ctx, "nowhere, id")
	assert.True(t, found)
}
