// internal/matching/geocoder.go
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	DefaultGeocoderURL       = "https://nominatim.openstreetmap.org"
	DefaultGeocoderUserAgent = "XtraFleet-LoadMatcher/1.0"
	DefaultGeocoderTimeout   = 5 * time.Second
)

var (
	// ErrNoGeocodeResult is returned when the geocoder answers with an empty list.
	ErrNoGeocodeResult = errors.New("geocoder returned no results")
	// ErrGeocodeNotAttempted wraps failures that happen before any request is
	// sent, such as a rate limit wait that cannot finish before the deadline.
	ErrGeocodeNotAttempted = errors.New("geocode request not attempted")
)

// Geocoder turns a free-text query into a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Coordinate, error)
}

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond <= 0 disables client-side rate limiting.
	RequestsPerSecond float64
}

// NominatimGeocoder queries a Nominatim-compatible /search endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewNominatimGeocoder(cfg NominatimConfig) *NominatimGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeocoderURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultGeocoderUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGeocoderTimeout
	}

	g := &NominatimGeocoder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the first result for query. Transport errors, non-200
// responses, empty result lists and unparsable or non-finite coordinates are
// all errors.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Coordinate, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Coordinate{}, fmt.Errorf("%w: rate limit wait: %w", ErrGeocodeNotAttempted, err)
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: build request: %w", ErrGeocodeNotAttempted, err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Coordinate{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinate{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return Coordinate{}, ErrNoGeocodeResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	if !finite(lat) || !finite(lng) {
		return Coordinate{}, fmt.Errorf("non-finite coordinate %q,%q", results[0].Lat, results[0].Lon)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
