package matching

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocoder_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Boise, ID, USA", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"43.6150","lon":"-116.2023","display_name":"Boise"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(NominatimConfig{BaseURL: srv.URL + "/", UserAgent: "test-agent/1.0"})
	c, err := g.Geocode(context.Background(), "Boise, ID, USA")

	require.NoError(t, err)
	assert.InDelta(t, 43.6150, c.Lat, 1e-9)
	assert.InDelta(t, -116.2023, c.Lng, 1e-9)
}

func TestNominatimGeocoder_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non ok status", http.StatusServiceUnavailable, `[]`},
		{"empty result", http.StatusOK, `[]`},
		{"malformed body", http.StatusOK, `{"oops":`},
		{"bad latitude", http.StatusOK, `[{"lat":"north","lon":"-116.2"}]`},
		{"bad longitude", http.StatusOK, `[{"lat":"43.6","lon":""}]`},
		{"nan latitude", http.StatusOK, `[{"lat":"nan","lon":"-116.2"}]`},
		{"infinite longitude", http.StatusOK, `[{"lat":"43.6","lon":"+Inf"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewNominatimGeocoder(NominatimConfig{BaseURL: srv.URL})
			_, err := g.Geocode(context.Background(), "Boise, ID, USA")
			assert.Error(t, err)
		})
	}
}

func TestNominatimGeocoder_EmptyResultIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(NominatimConfig{BaseURL: srv.URL})
	_, err := g.Geocode(context.Background(), "Nowhere, ID, USA")
	assert.ErrorIs(t, err, ErrNoGeocodeResult)
}

func TestNominatimGeocoder_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(NominatimConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := g.Geocode(context.Background(), "Boise, ID, USA")
	assert.Error(t, err)
}

func TestNominatimGeocoder_RateLimitHonoursContext(t *testing.T) {
	g := NewNominatimGeocoder(NominatimConfig{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 0.001})
	// Burst of one: the first Wait consumes the token.
	require.NoError(t, g.limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := g.Geocode(ctx, "Boise, ID, USA")
	assert.ErrorIs(t, err, ErrGeocodeNotAttempted)
}
