// internal/matching/resolver.go
package matching

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"
)

var tracer = otel.Tracer("github.com/edwardxtra/xtrafleet-sub000/internal/matching")

// CoordinateResolver maps a free-text location to coordinates. Resolve never
// fails loudly: an unresolvable location is reported through the bool.
type CoordinateResolver interface {
	Resolve(ctx context.Context, location string) (Coordinate, bool)
}

// FallbackResolver answers from the static lookup table only and never blocks.
type FallbackResolver struct{}

func (FallbackResolver) Resolve(_ context.Context, location string) (Coordinate, bool) {
	return LookupFallback(location)
}

// GeocodingResolver extends the fallback table with an external geocoder for
// locations inside the enabled regions. Positive and negative answers are
// cached by normalized input, and concurrent lookups of the same key share a
// single geocoder call.
type GeocodingResolver struct {
	geocoder Geocoder
	cache    GeocodeCache
	regions  *RegionSet
	logger   logger.Logger
	group    singleflight.Group
}

type ResolverOption func(*GeocodingResolver)

func WithGeocodeCache(cache GeocodeCache) ResolverOption {
	return func(r *GeocodingResolver) { r.cache = cache }
}

func WithRegions(regions []Region) ResolverOption {
	return func(r *GeocodingResolver) { r.regions = NewRegionSet(regions) }
}

func WithResolverLogger(log logger.Logger) ResolverOption {
	return func(r *GeocodingResolver) { r.logger = log }
}

func NewGeocodingResolver(geocoder Geocoder, opts ...ResolverOption) *GeocodingResolver {
	r := &GeocodingResolver{
		geocoder: geocoder,
		cache:    NewMemoryGeocodeCache(),
		regions:  NewRegionSet(DefaultGeocodingRegions),
		logger:   logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GeocodingResolver) Resolve(ctx context.Context, location string) (Coordinate, bool) {
	if c, ok := LookupFallback(location); ok {
		metrics.GeocodeCacheHits.WithLabelValues("fallback").Inc()
		return c, true
	}

	key := locationKey(location)
	if key == "" {
		return Coordinate{}, false
	}

	if coord, found := r.cache.Lookup(ctx, key); found {
		if coord == nil {
			return Coordinate{}, false
		}
		return *coord, true
	}

	if r.geocoder == nil || !r.regions.Contains(location) {
		return Coordinate{}, false
	}

	// Cancellation is honoured between lookups, never mid-request.
	if ctx.Err() != nil {
		return Coordinate{}, false
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.lookup(ctx, location, key)
	})
	if err != nil {
		return Coordinate{}, false
	}
	coord, _ := v.(*Coordinate)
	if coord == nil {
		return Coordinate{}, false
	}
	return *coord, true
}

// lookup calls the geocoder and caches the outcome. A cancelled context or a
// lookup that never reached the geocoder is returned as an error and not
// cached.
func (r *GeocodingResolver) lookup(ctx context.Context, location, key string) (*Coordinate, error) {
	ctx, span := tracer.Start(ctx, "matching.geocode")
	defer span.End()
	span.SetAttributes(attribute.String("location", key))

	query := strings.TrimSpace(location) + ", USA"
	c, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, ctxErr
		}
		if errors.Is(err, ErrGeocodeNotAttempted) {
			metrics.GeocodeLookups.WithLabelValues("skipped").Inc()
			span.SetStatus(codes.Error, "not attempted")
			r.logger.Debug("geocode skipped, not caching", map[string]interface{}{
				"location": location,
				"error":    err.Error(),
			})
			return nil, err
		}

		result := "error"
		if errors.Is(err, ErrNoGeocodeResult) {
			result = "miss"
		}
		metrics.GeocodeLookups.WithLabelValues(result).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		geoErr := apperrors.NewGeocodeFailedError(location, err)
		r.logger.Warn("geocoding failed, caching negative result", map[string]interface{}{
			"location":  location,
			"errorCode": string(geoErr.Code),
			"error":     geoErr.Details,
		})
		r.cache.Store(ctx, key, nil)
		return nil, nil
	}

	metrics.GeocodeLookups.WithLabelValues("hit").Inc()
	span.SetAttributes(attribute.Float64("lat", c.Lat), attribute.Float64("lng", c.Lng))
	r.cache.Store(ctx, key, &c)
	return &c, nil
}

// DistanceBetween resolves both locations and returns the distance in miles.
// The bool is false when either side cannot be resolved.
func DistanceBetween(ctx context.Context, resolver CoordinateResolver, from, to string) (float64, bool) {
	a, ok := resolver.Resolve(ctx, from)
	if !ok {
		return 0, false
	}
	b, ok := resolver.Resolve(ctx, to)
	if !ok {
		return 0, false
	}
	return DistanceMiles(a, b), true
}
